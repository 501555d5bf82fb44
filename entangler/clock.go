package entangler

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/MixinNetwork/mixin/logger"
)

const clockStorePropertyKey = "ENTANGLER:CLOCK:MONOTONIC"

// Clock stamps journals with strictly increasing times that survive restarts
// and wall clock rewinds.
type Clock struct {
	sync.Mutex
	store Store
	now   time.Time
}

func NewClock(store Store) (*Clock, error) {
	bs, err := store.ReadProperty([]byte(clockStorePropertyKey))
	if err != nil {
		return nil, err
	}
	var ts time.Time
	if len(bs) == 8 {
		ts = time.Unix(0, int64(binary.BigEndian.Uint64(bs)))
	}
	if now := time.Now(); ts.Before(now) {
		ts = now
	}
	clock := new(Clock)
	clock.store = store
	clock.now = ts
	return clock, nil
}

func (c *Clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	now := time.Now()
	if now.After(c.now) {
		c.now = now
	} else {
		c.now = c.now.Add(time.Nanosecond)
	}

	val := binary.BigEndian.AppendUint64(nil, uint64(c.now.UnixNano()))
	for {
		err := c.store.WriteProperty([]byte(clockStorePropertyKey), val)
		if err == nil {
			break
		}
		logger.Printf("Clock.WriteProperty() => %v\n", err)
		time.Sleep(100 * time.Millisecond)
	}

	return c.now
}
