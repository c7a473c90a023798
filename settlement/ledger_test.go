// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	stdmath "math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/mutual/mutual"
)

var (
	alice = mutual.BytesToAddress([]byte("alice"))
	bob   = mutual.BytesToAddress([]byte("bob"))
)

func balanceOf(t *testing.T, l Ledger, acc mutual.Address) uint64 {
	b, err := l.Balance(acc)
	require.NoError(t, err)
	return b
}

func TestMemLedger(t *testing.T) {
	l := NewMemLedger(map[mutual.Address]uint64{alice: 100})

	require.NoError(t, l.Transfer(alice, bob, 40))
	assert.Equal(t, uint64(60), balanceOf(t, l, alice))
	assert.Equal(t, uint64(40), balanceOf(t, l, bob))

	err := l.Transfer(bob, alice, 41)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Equal(t, uint64(40), balanceOf(t, l, bob))

	require.NoError(t, l.Withdraw(bob, 40))
	assert.Zero(t, balanceOf(t, l, bob))
	assert.ErrorIs(t, l.Withdraw(bob, 1), ErrInsufficientBalance)

	require.NoError(t, l.Deposit(bob, stdmath.MaxUint64))
	assert.Error(t, l.Deposit(bob, 1))

	require.NoError(t, l.Transfer(alice, alice, 60))
	assert.Equal(t, uint64(60), balanceOf(t, l, alice))
}

func TestJournalRollback(t *testing.T) {
	l := NewMemLedger(map[mutual.Address]uint64{alice: 100})
	j := NewJournal(l)

	require.NoError(t, j.Transfer(alice, bob, 30))
	require.NoError(t, j.Deposit(alice, 5))
	require.NoError(t, j.Withdraw(bob, 10))
	assert.Error(t, j.Withdraw(bob, 100))
	assert.Equal(t, 3, j.Len(), "failed calls are not recorded")

	assert.Equal(t, uint64(75), balanceOf(t, j, alice))
	assert.Equal(t, uint64(20), balanceOf(t, j, bob))

	require.NoError(t, j.Rollback())
	assert.Equal(t, uint64(100), balanceOf(t, l, alice))
	assert.Zero(t, balanceOf(t, l, bob))
	assert.Zero(t, j.Len())
}

func TestJournalReset(t *testing.T) {
	l := NewMemLedger(map[mutual.Address]uint64{alice: 100})
	j := NewJournal(l)

	require.NoError(t, j.Transfer(alice, bob, 30))
	j.Reset()
	require.NoError(t, j.Rollback())
	assert.Equal(t, uint64(30), balanceOf(t, l, bob))
}
