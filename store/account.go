package store

import (
	"bytes"

	"github.com/MixinNetwork/entangler/token"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v4"
	"github.com/gagliardetto/solana-go"
)

const (
	prefixAccountPayload = "ACCOUNT:PAYLOAD:"
	prefixAccountOwner   = "ACCOUNT:OWNER:"

	discriminatorSize = 8
)

func (bs *BadgerStore) ReadAccount(address solana.PublicKey) (*token.Account, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readAccount(txn, address)
}

// ListAccounts scans the accounts owned by owner whose data starts with
// discriminator, in address order. A limit of 0 lists all of them.
func (bs *BadgerStore) ListAccounts(owner solana.PublicKey, discriminator []byte, limit int) ([]*token.Account, error) {
	if len(discriminator) > discriminatorSize {
		discriminator = discriminator[:discriminatorSize]
	}
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = append([]byte(prefixAccountOwner), owner[:]...)
	opts.Prefix = append(opts.Prefix, discriminator...)
	it := txn.NewIterator(opts)
	defer it.Close()

	var accounts []*token.Account
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		addr := solana.PublicKeyFromBytes(key[len(key)-solana.PublicKeyLength:])
		acc, err := readAccount(txn, addr)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
		if len(accounts) == limit {
			break
		}
	}
	return accounts, nil
}

func (t *Txn) ReadAccount(address solana.PublicKey) (*token.Account, error) {
	return readAccount(t.txn, address)
}

func (t *Txn) WriteAccount(acc *token.Account) error {
	old, err := readAccount(t.txn, acc.Address)
	if err != nil {
		return err
	}
	if old != nil {
		ok := buildAccountOwnerKey(old)
		nk := buildAccountOwnerKey(acc)
		if !bytes.Equal(ok, nk) {
			err = t.txn.Delete(ok)
			if err != nil {
				return err
			}
		}
	}

	key := append([]byte(prefixAccountPayload), acc.Address[:]...)
	err = t.txn.Set(key, common.MsgpackMarshalPanic(acc))
	if err != nil {
		return err
	}
	return t.txn.Set(buildAccountOwnerKey(acc), []byte{1})
}

func (t *Txn) DeleteAccount(address solana.PublicKey) error {
	old, err := readAccount(t.txn, address)
	if err != nil || old == nil {
		return err
	}
	err = t.txn.Delete(buildAccountOwnerKey(old))
	if err != nil {
		return err
	}
	key := append([]byte(prefixAccountPayload), address[:]...)
	return t.txn.Delete(key)
}

func readAccount(txn *badger.Txn, address solana.PublicKey) (*token.Account, error) {
	key := append([]byte(prefixAccountPayload), address[:]...)
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
	var acc token.Account
	err = common.MsgpackUnmarshal(val, &acc)
	return &acc, err
}

func buildAccountOwnerKey(acc *token.Account) []byte {
	disc := make([]byte, discriminatorSize)
	copy(disc, acc.Data)
	key := append([]byte(prefixAccountOwner), acc.Owner[:]...)
	key = append(key, disc...)
	return append(key, acc.Address[:]...)
}
