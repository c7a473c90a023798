// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package distribution queues approved claims and selects which of them a pool
// pays when its fund cannot cover them all.
package distribution

import (
	"github.com/vechain/mutual/mutual"
)

// Entry is an approved claim waiting for payout.
type Entry struct {
	Claim       mutual.Bytes32
	Claimant    mutual.Address
	Amount      uint64
	EnqueuedAt  uint64
	Distributed bool
}

type RoundStatus uint8

const (
	AwaitingRandomness RoundStatus = iota + 1
	Completed
)

func (s RoundStatus) String() string {
	switch s {
	case AwaitingRandomness:
		return "awaiting-randomness"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Round is one run of distribution over a snapshot of the queue.
type Round struct {
	Pool           mutual.Address
	Number         uint64
	Funds          uint64 // fund balance when the snapshot was taken
	Snapshot       []Entry
	Request        mutual.Bytes32 // zero unless oversubscribed
	Status         RoundStatus
	Oversubscribed bool
	Admitted       []mutual.Bytes32 // claim ids in admission order
	Skipped        []mutual.Bytes32
	Paid           uint64
	StartedAt      uint64
	CompletedAt    uint64
}

// Payouts returns the admitted entries in admission order.
func (r *Round) Payouts() []Entry {
	index := make(map[mutual.Bytes32]int, len(r.Snapshot))
	for i, e := range r.Snapshot {
		index[e.Claim] = i
	}
	payouts := make([]Entry, 0, len(r.Admitted))
	for _, id := range r.Admitted {
		payouts = append(payouts, r.Snapshot[index[id]])
	}
	return payouts
}

// Selection is the result of a greedy pass. Admitted and Skipped hold indices
// into the snapshot in the order they were visited.
type Selection struct {
	Admitted []int
	Skipped  []int
	Paid     uint64
}

// Select walks entries once in perm order, admitting each entry whose amount
// fits into the funds still remaining. Skipped entries are not revisited.
func Select(entries []Entry, perm []int, funds uint64) Selection {
	var (
		sel       Selection
		remaining = funds
	)
	for _, i := range perm {
		amount := entries[i].Amount
		if amount > remaining {
			sel.Skipped = append(sel.Skipped, i)
			continue
		}
		remaining -= amount
		sel.Paid += amount
		sel.Admitted = append(sel.Admitted, i)
	}
	return sel
}
