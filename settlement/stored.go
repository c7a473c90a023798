// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"sync"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/mutual/kv"
	"github.com/vechain/mutual/mutual"
)

var (
	balancePrefix = []byte("b")
	openedKey     = []byte("opened")
)

// StoredLedger keeps balances in a kv store, so they survive restarts.
// Each call is written as one batch.
type StoredLedger struct {
	lock  sync.Mutex
	store kv.Store
}

var _ Ledger = (*StoredLedger)(nil)

// NewStoredLedger opens the ledger kept in store. Opening balances are deposited
// only the first time a store is opened and are ignored afterwards.
func NewStoredLedger(store kv.Store, opening map[mutual.Address]uint64) (*StoredLedger, error) {
	l := &StoredLedger{store: store}

	opened, err := store.Has(openedKey)
	if err != nil {
		return nil, errors.Wrap(err, "check ledger opened")
	}
	if opened {
		return l, nil
	}

	batch := store.NewBatch()
	for acc, b := range opening {
		if err := l.put(batch, acc, b); err != nil {
			return nil, err
		}
	}
	if err := batch.Put(openedKey, []byte{1}); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "write opening balances")
	}
	logger.Info("ledger opened", "accounts", len(opening))
	return l, nil
}

func balanceKey(account mutual.Address) []byte {
	return append(append([]byte(nil), balancePrefix...), account.Bytes()...)
}

func (l *StoredLedger) get(account mutual.Address) (uint64, error) {
	raw, err := l.store.Get(balanceKey(account))
	if err != nil {
		if l.store.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "get balance of %v", account)
	}
	var b uint64
	if err := rlp.DecodeBytes(raw, &b); err != nil {
		return 0, errors.Wrapf(err, "decode balance of %v", account)
	}
	return b, nil
}

func (l *StoredLedger) put(p kv.Putter, account mutual.Address, b uint64) error {
	if b == 0 {
		return p.Delete(balanceKey(account))
	}
	raw, err := rlp.EncodeToBytes(b)
	if err != nil {
		return err
	}
	return p.Put(balanceKey(account), raw)
}

func (l *StoredLedger) Deposit(account mutual.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	b, err := l.get(account)
	if err != nil {
		return err
	}
	sum, overflow := math.SafeAdd(b, amount)
	if overflow {
		return errors.Errorf("deposit overflows balance of %v", account)
	}
	return l.write(map[mutual.Address]uint64{account: sum})
}

func (l *StoredLedger) Withdraw(account mutual.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	b, err := l.get(account)
	if err != nil {
		return err
	}
	if b < amount {
		return errors.Wrapf(ErrInsufficientBalance, "withdraw %d from %v", amount, account)
	}
	return l.write(map[mutual.Address]uint64{account: b - amount})
}

func (l *StoredLedger) Transfer(from, to mutual.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	fromBalance, err := l.get(from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return errors.Wrapf(ErrInsufficientBalance, "transfer %d from %v", amount, from)
	}
	if from == to {
		return nil
	}
	toBalance, err := l.get(to)
	if err != nil {
		return err
	}
	sum, overflow := math.SafeAdd(toBalance, amount)
	if overflow {
		return errors.Errorf("transfer overflows balance of %v", to)
	}
	return l.write(map[mutual.Address]uint64{from: fromBalance - amount, to: sum})
}

func (l *StoredLedger) Balance(account mutual.Address) (uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.get(account)
}

func (l *StoredLedger) write(balances map[mutual.Address]uint64) error {
	batch := l.store.NewBatch()
	for acc, b := range balances {
		if err := l.put(batch, acc, b); err != nil {
			return err
		}
	}
	return errors.Wrap(batch.Write(), "write balances")
}
