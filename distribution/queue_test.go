// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/lvldb"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/state"
)

var testPool = mutual.BytesToAddress([]byte("pool"))

type fixture struct {
	svc    *Service
	claims *claim.Service
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, 1)
	claims := claim.New(st)
	return &fixture{svc: New(st, claims), claims: claims}
}

// approve creates a claim and drives it to Approved.
func (f *fixture) approve(t *testing.T, amount uint64) *claim.Claim {
	c, err := f.claims.Create(&claim.Submission{
		Pool:         testPool,
		Claimant:     mutual.BytesToAddress([]byte{byte(amount)}),
		IncidentType: claim.Other,
		Amount:       amount,
	}, 1)
	require.NoError(t, err)
	require.NoError(t, c.Transition(claim.UnderValidation))
	require.NoError(t, c.Transition(claim.Approved))
	c.PayoutAmount = c.Amount
	require.NoError(t, f.claims.Set(c))
	return c
}

func (f *fixture) status(t *testing.T, id mutual.Bytes32) claim.Status {
	c, err := f.claims.Get(id)
	require.NoError(t, err)
	return c.Status
}

func TestEnqueue(t *testing.T) {
	f := newFixture(t)
	c := f.approve(t, 40)

	entry, err := f.svc.Enqueue(c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, Entry{Claim: c.ID, Claimant: c.Claimant, Amount: 40, EnqueuedAt: 5}, *entry)
	assert.Equal(t, claim.Queued, f.status(t, c.ID))

	q, err := f.svc.Queue(testPool)
	require.NoError(t, err)
	assert.Equal(t, []Entry{*entry}, q)

	_, err = f.svc.Enqueue(c.ID, 6)
	assert.ErrorIs(t, err, reverts.ErrInvalidStateTransition)

	pending, err := f.claims.Create(&claim.Submission{Pool: testPool, IncidentType: claim.Other, Amount: 1}, 1)
	require.NoError(t, err)
	_, err = f.svc.Enqueue(pending.ID, 6)
	assert.ErrorIs(t, err, reverts.ErrInvalidStateTransition)
}

func TestRoundWithinFunds(t *testing.T) {
	f := newFixture(t)
	ids := []mutual.Bytes32{f.approve(t, 10).ID, f.approve(t, 20).ID}
	for _, id := range ids {
		_, err := f.svc.Enqueue(id, 2)
		require.NoError(t, err)
	}

	r, err := f.svc.Open(testPool, 30, 3)
	require.NoError(t, err)
	assert.False(t, r.Oversubscribed)
	assert.Equal(t, uint64(1), r.Number)

	r, err = f.svc.Settle(testPool, r.Number, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, Completed, r.Status)
	assert.Equal(t, ids, r.Admitted)
	assert.Equal(t, uint64(30), r.Paid)
	for _, id := range ids {
		assert.Equal(t, claim.Distributed, f.status(t, id))
	}

	q, err := f.svc.Queue(testPool)
	require.NoError(t, err)
	assert.Empty(t, q)

	sum, err := f.svc.Summary(testPool)
	require.NoError(t, err)
	assert.Equal(t, Summary{Rounds: 1, LastDistribution: 4}, *sum)

	_, err = f.svc.Open(testPool, 30, 5)
	assert.ErrorIs(t, err, reverts.ErrNothingToDistribute)
}

func TestOversubscribedRound(t *testing.T) {
	f := newFixture(t)
	var ids []mutual.Bytes32
	for _, amount := range []uint64{40, 30, 20} {
		c := f.approve(t, amount)
		_, err := f.svc.Enqueue(c.ID, 2)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	_, err := f.svc.Open(testPool, 19, 3)
	assert.ErrorIs(t, err, reverts.ErrInsufficientPoolFunds)

	r, err := f.svc.Open(testPool, 50, 3)
	require.NoError(t, err)
	assert.True(t, r.Oversubscribed)
	assert.Equal(t, AwaitingRandomness, r.Status)

	current, err := f.svc.CurrentRound(testPool)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, r.Number, current.Number)
	assert.Equal(t, r.Snapshot, current.Snapshot)

	_, err = f.svc.Open(testPool, 50, 3)
	assert.ErrorIs(t, err, reverts.ErrInvalidStateTransition)

	// enqueued after the snapshot, not part of the round
	late := f.approve(t, 5)
	_, err = f.svc.Enqueue(late.ID, 4)
	require.NoError(t, err)

	seed := mutual.Blake2b([]byte("seed"))
	r, err = f.svc.Settle(testPool, r.Number, seed.Bytes(), 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, r.Paid, uint64(50))
	assert.Len(t, r.Snapshot, 3)
	assert.Equal(t, 3, len(r.Admitted)+len(r.Skipped))
	assert.NotEmpty(t, r.Admitted)

	for _, id := range r.Admitted {
		assert.Equal(t, claim.Distributed, f.status(t, id))
	}
	for _, id := range r.Skipped {
		assert.Equal(t, claim.Queued, f.status(t, id))
	}

	q, err := f.svc.Queue(testPool)
	require.NoError(t, err)
	assert.Len(t, q, len(r.Skipped)+1)
	assert.Equal(t, late.ID, q[len(q)-1].Claim)

	current, err = f.svc.CurrentRound(testPool)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = f.svc.Settle(testPool, r.Number, seed.Bytes(), 6)
	assert.ErrorIs(t, err, reverts.ErrInvalidStateTransition)

	stored, err := f.svc.Round(testPool, 1)
	require.NoError(t, err)
	assert.Equal(t, Completed, stored.Status)
	assert.Equal(t, r.Admitted, stored.Admitted)
	assert.Equal(t, r.Paid, stored.Paid)
}
