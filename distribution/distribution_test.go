// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"

	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/shuffle"
)

func entries(amounts ...uint64) []Entry {
	es := make([]Entry, 0, len(amounts))
	for i, a := range amounts {
		es = append(es, Entry{Claim: mutual.Blake2b([]byte{byte(i)}), Amount: a})
	}
	return es
}

func TestSelectGreedySinglePass(t *testing.T) {
	tests := []struct {
		name     string
		amounts  []uint64
		perm     []int
		funds    uint64
		admitted []int
		skipped  []int
		paid     uint64
	}{
		{"skip larger then admit smaller", []uint64{40, 30, 20}, []int{1, 0, 2}, 50, []int{1, 2}, []int{0}, 50},
		{"first fits exactly", []uint64{40, 30, 20}, []int{0, 1, 2}, 40, []int{0}, []int{1, 2}, 40},
		{"no retry after freed capacity", []uint64{10, 45, 5}, []int{1, 0, 2}, 50, []int{1, 2}, []int{0}, 50},
		{"all fit", []uint64{1, 2, 3}, []int{2, 1, 0}, 6, []int{2, 1, 0}, nil, 6},
		{"none fit", []uint64{7, 8}, []int{0, 1}, 6, nil, []int{0, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(entries(tt.amounts...), tt.perm, tt.funds)
			assert.Equal(t, tt.admitted, sel.Admitted)
			assert.Equal(t, tt.skipped, sel.Skipped)
			assert.Equal(t, tt.paid, sel.Paid)
		})
	}
}

func TestSelectNeverOverpays(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 32)
	for i := 0; i < 500; i++ {
		var (
			amounts []uint32
			funds   uint32
			seed    [32]byte
		)
		f.Fuzz(&amounts)
		f.Fuzz(&funds)
		f.Fuzz(&seed)

		es := make([]Entry, len(amounts))
		for i, a := range amounts {
			es[i].Amount = uint64(a % 1000)
		}
		limit := uint64(funds % 5000)
		perm := shuffle.Permutation(seed[:], len(es))
		sel := Select(es, perm, limit)

		assert.LessOrEqual(t, sel.Paid, limit)
		assert.Equal(t, len(es), len(sel.Admitted)+len(sel.Skipped))

		remaining := limit
		admitted := make(map[int]bool)
		for _, i := range sel.Admitted {
			assert.LessOrEqual(t, es[i].Amount, remaining)
			remaining -= es[i].Amount
			admitted[i] = true
		}
		// a skipped entry did not fit at the moment it was visited
		remaining = limit
		for _, i := range perm {
			if admitted[i] {
				remaining -= es[i].Amount
			} else {
				assert.Greater(t, es[i].Amount, remaining)
			}
		}
	}
}

func TestRoundPayouts(t *testing.T) {
	es := entries(40, 30, 20)
	r := &Round{Snapshot: es, Admitted: []mutual.Bytes32{es[2].Claim, es[1].Claim}}
	payouts := r.Payouts()
	assert.Equal(t, []Entry{es[2], es[1]}, payouts)
}
