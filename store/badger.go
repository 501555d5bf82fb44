package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/dgraph-io/badger/v4"
)

const prefixProperty = "PROPERTY:"

type Config struct {
	Dir            string
	InMemory       bool
	SyncWrites     bool
	GCInterval     time.Duration
	GCDiscardRatio float64
}

func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:            dir,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

type BadgerStore struct {
	db *badger.DB
}

func OpenBadger(ctx context.Context, conf *Config) (*BadgerStore, error) {
	var opts badger.Options
	if conf.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if conf.Dir == "" {
			return nil, errors.New("empty database directory")
		}
		err := os.MkdirAll(conf.Dir, 0750)
		if err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", conf.Dir, err)
		}
		opts = badger.DefaultOptions(conf.Dir)
	}
	opts = opts.WithSyncWrites(conf.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	if !conf.InMemory && conf.GCInterval > 0 {
		go runValueLogGC(ctx, db, conf)
	}

	return &BadgerStore{
		db: db,
	}, nil
}

func OpenInMemory(ctx context.Context) (*BadgerStore, error) {
	return OpenBadger(ctx, &Config{InMemory: true})
}

func runValueLogGC(ctx context.Context, db *badger.DB, conf *Config) {
	ticker := time.NewTicker(conf.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if db.IsClosed() {
			return
		}
		lsm, vlog := db.Size()
		logger.Printf("Badger LSM %d VLOG %d\n", lsm, vlog)
		if lsm > 1024*1024*8 || vlog > 1024*1024*32 {
			err := db.RunValueLogGC(conf.GCDiscardRatio)
			logger.Printf("Badger RunValueLogGC %v\n", err)
		}
	}
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

func (bs *BadgerStore) Badger() *badger.DB {
	return bs.db
}

// RunTransaction executes fn in a single read-write transaction. Nothing fn
// wrote is visible unless it returns nil and the commit succeeds; a commit
// that conflicts with a concurrent transaction fails with a Conflict error.
func (bs *BadgerStore) RunTransaction(ctx context.Context, fn func(entangler.Txn) error) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	err = bs.db.Update(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
	if errors.Is(err, badger.ErrConflict) {
		return entangler.NewError(entangler.CodeConflict, "transaction")
	}
	return err
}

func (bs *BadgerStore) WriteProperty(key, val []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		key = append([]byte(prefixProperty), key...)
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) ReadProperty(key []byte) ([]byte, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	key = append([]byte(prefixProperty), key...)
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

type Txn struct {
	txn *badger.Txn
}
