// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"github.com/pkg/errors"

	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/mutual"
)

var logger = log.WithContext("pkg", "settlement")

type opKind uint8

const (
	opDeposit opKind = iota
	opWithdraw
	opTransfer
)

type op struct {
	kind     opKind
	from, to mutual.Address
	amount   uint64
}

// Journal wraps a ledger and records every applied call,
// so a failed transition can compensate them in reverse order.
type Journal struct {
	ledger Ledger
	ops    []op
}

var _ Ledger = (*Journal)(nil)

// NewJournal creates a journal over ledger.
func NewJournal(ledger Ledger) *Journal {
	return &Journal{ledger: ledger}
}

func (j *Journal) Deposit(account mutual.Address, amount uint64) error {
	if err := j.ledger.Deposit(account, amount); err != nil {
		return err
	}
	j.ops = append(j.ops, op{kind: opDeposit, to: account, amount: amount})
	return nil
}

func (j *Journal) Withdraw(account mutual.Address, amount uint64) error {
	if err := j.ledger.Withdraw(account, amount); err != nil {
		return err
	}
	j.ops = append(j.ops, op{kind: opWithdraw, from: account, amount: amount})
	return nil
}

func (j *Journal) Transfer(from, to mutual.Address, amount uint64) error {
	if err := j.ledger.Transfer(from, to, amount); err != nil {
		return err
	}
	j.ops = append(j.ops, op{kind: opTransfer, from: from, to: to, amount: amount})
	return nil
}

func (j *Journal) Balance(account mutual.Address) (uint64, error) {
	return j.ledger.Balance(account)
}

// Len returns the number of applied calls.
func (j *Journal) Len() int {
	return len(j.ops)
}

// Rollback compensates all applied calls in reverse order.
// It keeps going after a failed compensation and returns the first failure.
func (j *Journal) Rollback() error {
	var first error
	for i := len(j.ops) - 1; i >= 0; i-- {
		o := j.ops[i]
		var err error
		switch o.kind {
		case opDeposit:
			err = j.ledger.Withdraw(o.to, o.amount)
		case opWithdraw:
			err = j.ledger.Deposit(o.from, o.amount)
		case opTransfer:
			err = j.ledger.Transfer(o.to, o.from, o.amount)
		}
		if err != nil {
			logger.Error("failed to compensate ledger call", "kind", o.kind, "from", o.from, "to", o.to, "amount", o.amount, "err", err)
			if first == nil {
				first = errors.Wrap(err, "rollback ledger")
			}
		}
	}
	j.ops = nil
	return first
}

// Reset forgets applied calls, making them permanent.
func (j *Journal) Reset() {
	j.ops = nil
}
