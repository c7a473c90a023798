// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package settlement defines the ledger that moves funds on behalf of the engine.
package settlement

import (
	"sync"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/mutual/mutual"
)

// ErrInsufficientBalance is returned when an account can not cover a debit.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger moves value between accounts. Implementations must apply each call atomically.
type Ledger interface {
	Deposit(account mutual.Address, amount uint64) error
	Withdraw(account mutual.Address, amount uint64) error
	Transfer(from, to mutual.Address, amount uint64) error
	Balance(account mutual.Address) (uint64, error)
}

// MemLedger is an in-memory ledger.
type MemLedger struct {
	lock     sync.Mutex
	balances map[mutual.Address]uint64
}

var _ Ledger = (*MemLedger)(nil)

// NewMemLedger creates a ledger with the given opening balances.
func NewMemLedger(balances map[mutual.Address]uint64) *MemLedger {
	l := &MemLedger{balances: make(map[mutual.Address]uint64, len(balances))}
	for acc, b := range balances {
		l.balances[acc] = b
	}
	return l
}

func (l *MemLedger) Deposit(account mutual.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	sum, overflow := math.SafeAdd(l.balances[account], amount)
	if overflow {
		return errors.Errorf("deposit overflows balance of %v", account)
	}
	l.balances[account] = sum
	return nil
}

func (l *MemLedger) Withdraw(account mutual.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.balances[account] < amount {
		return errors.Wrapf(ErrInsufficientBalance, "withdraw %d from %v", amount, account)
	}
	l.balances[account] -= amount
	return nil
}

func (l *MemLedger) Transfer(from, to mutual.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.balances[from] < amount {
		return errors.Wrapf(ErrInsufficientBalance, "transfer %d from %v", amount, from)
	}
	if from == to {
		return nil
	}
	sum, overflow := math.SafeAdd(l.balances[to], amount)
	if overflow {
		return errors.Errorf("transfer overflows balance of %v", to)
	}
	l.balances[from] -= amount
	l.balances[to] = sum
	return nil
}

func (l *MemLedger) Balance(account mutual.Address) (uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.balances[account], nil
}
