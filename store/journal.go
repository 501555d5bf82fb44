package store

import (
	"time"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v4"
)

const (
	prefixJournalPayload = "JOURNAL:PAYLOAD:"
	prefixJournalTimed   = "JOURNAL:TIMED:"
)

func (t *Txn) ReadJournal(traceId string) (*entangler.Journal, error) {
	return readJournal(t.txn, traceId)
}

func (t *Txn) WriteJournal(j *entangler.Journal) error {
	old, err := readJournal(t.txn, j.TraceId)
	if err != nil {
		return err
	} else if old != nil {
		panic(j.TraceId)
	}
	key := []byte(prefixJournalPayload + j.TraceId)
	err = t.txn.Set(key, common.MsgpackMarshalPanic(j))
	if err != nil {
		return err
	}
	return t.txn.Set(buildJournalTimedKey(j), []byte{1})
}

func (bs *BadgerStore) ReadJournal(traceId string) (*entangler.Journal, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readJournal(txn, traceId)
}

// ListJournals returns journals created at or after offset, oldest first.
func (bs *BadgerStore) ListJournals(offset time.Time, limit int) ([]*entangler.Journal, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixJournalTimed)
	it := txn.NewIterator(opts)
	defer it.Close()

	var journals []*entangler.Journal
	seek := opts.Prefix
	if offset.After(time.Unix(0, 0)) {
		seek = timedKey(prefixJournalTimed, offset, "")
	}
	for it.Seek(seek); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		j, err := readJournal(txn, id)
		if err != nil {
			return nil, err
		}
		journals = append(journals, j)
		if len(journals) == limit {
			break
		}
	}
	return journals, nil
}

func readJournal(txn *badger.Txn, traceId string) (*entangler.Journal, error) {
	key := []byte(prefixJournalPayload + traceId)
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var j entangler.Journal
	err = common.MsgpackUnmarshal(val, &j)
	return &j, err
}

func buildJournalTimedKey(j *entangler.Journal) []byte {
	return timedKey(prefixJournalTimed, j.CreatedAt, j.TraceId)
}
