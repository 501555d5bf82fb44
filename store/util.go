package store

import (
	"encoding/binary"
	"time"
)

// timedKey is prefix, then ts as big endian nanoseconds, then suffix, so
// keys under one prefix iterate in time order.
func timedKey(prefix string, ts time.Time, suffix string) []byte {
	key := make([]byte, len(prefix)+8+len(suffix))
	n := copy(key, prefix)
	binary.BigEndian.PutUint64(key[n:], uint64(ts.UnixNano()))
	copy(key[n+8:], suffix)
	return key
}
