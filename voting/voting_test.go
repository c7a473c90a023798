// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/lvldb"
	"github.com/vechain/mutual/membership"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reputation"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/state"
)

var (
	pool = &membership.Pool{
		ID:            mutual.BytesToAddress([]byte("pool")),
		ClaimWindow:   1000,
		MinValidators: 3,
		MinStake:      950,
	}
	v1 = mutual.BytesToAddress([]byte("v1"))
	v2 = mutual.BytesToAddress([]byte("v2"))
	v3 = mutual.BytesToAddress([]byte("v3"))
	v4 = mutual.BytesToAddress([]byte("v4"))
)

type fixture struct {
	svc     *Service
	claims  *claim.Service
	records *reputation.Service
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, 1)
	f := &fixture{claims: claim.New(st), records: reputation.New(st)}
	f.svc = New(f.claims, f.records)
	for _, v := range []mutual.Address{v1, v2, v3, v4} {
		require.NoError(t, f.records.Set(reputation.NewRecord(pool.ID, v, 1000, 1)))
	}
	return f
}

func (f *fixture) claimUnderValidation(t *testing.T, validators ...mutual.Address) *claim.Claim {
	c, err := f.claims.Create(&claim.Submission{
		Pool:         pool.ID,
		Claimant:     mutual.BytesToAddress([]byte("claimant")),
		IncidentType: claim.Accident,
		Amount:       300,
		IncidentAt:   1,
	}, 2)
	require.NoError(t, err)
	c.Validators = validators
	require.NoError(t, c.Transition(claim.UnderValidation))
	require.NoError(t, f.claims.Set(c))
	return c
}

func (f *fixture) record(t *testing.T, v mutual.Address) *reputation.Record {
	rec, err := f.records.Get(pool.ID, v)
	require.NoError(t, err)
	return rec
}

func TestUnanimousApproval(t *testing.T) {
	f := newFixture(t)
	c := f.claimUnderValidation(t, v1, v2, v3)

	out, err := f.svc.Cast(pool, c.ID, v1, claim.Approve, "looks fine", 10)
	require.NoError(t, err)
	assert.False(t, out.Finalized)
	assert.Equal(t, claim.UnderValidation, out.Claim.Status)

	out, err = f.svc.Cast(pool, c.ID, v2, claim.Approve, "", 11)
	require.NoError(t, err)
	assert.True(t, out.Finalized, "threshold of 3 validators is 2")
	assert.Equal(t, claim.Approved, out.Claim.Status)
	assert.Equal(t, uint64(300), out.Claim.PayoutAmount)
	assert.Equal(t, uint64(11), out.Claim.ResolvedAt)
	assert.Empty(t, out.Slashes)
	assert.ElementsMatch(t, []mutual.Address{v1, v2}, out.Aligned)

	for _, v := range []mutual.Address{v1, v2} {
		rec := f.record(t, v)
		assert.Equal(t, uint64(5100), rec.Reputation)
		assert.Equal(t, uint64(1000), rec.Stake)
		assert.Equal(t, uint64(1), rec.SuccessfulValidations)
	}
	assert.Equal(t, mutual.InitialReputation, f.record(t, v3).Reputation, "non voters untouched")

	_, err = f.svc.Cast(pool, c.ID, v3, claim.Reject, "", 12)
	assert.ErrorIs(t, err, reverts.ErrClaimAlreadyFinalized)

	stored, err := f.claims.Get(c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Votes, 2)
}

func TestDissentIsSlashed(t *testing.T) {
	f := newFixture(t)
	c := f.claimUnderValidation(t, v1, v2, v3)

	_, err := f.svc.Cast(pool, c.ID, v1, claim.Approve, "", 10)
	require.NoError(t, err)
	_, err = f.svc.Cast(pool, c.ID, v2, claim.Reject, "fraud", 11)
	require.NoError(t, err)
	out, err := f.svc.Cast(pool, c.ID, v3, claim.Approve, "", 12)
	require.NoError(t, err)

	require.True(t, out.Finalized)
	assert.Equal(t, claim.Approved, out.Claim.Status)
	require.Len(t, out.Slashes, 1)
	assert.Equal(t, Slash{Validator: v2, Amount: 60, Deactivated: true}, out.Slashes[0])

	rec := f.record(t, v2)
	assert.Equal(t, uint64(940), rec.Stake)
	assert.Equal(t, uint64(4800), rec.Reputation)
	assert.Equal(t, uint64(60), rec.TotalSlashed)
	assert.False(t, rec.Active)

	assert.Equal(t, uint64(5100), f.record(t, v1).Reputation)
	assert.Equal(t, uint64(5100), f.record(t, v3).Reputation)
}

func TestRejection(t *testing.T) {
	f := newFixture(t)
	c := f.claimUnderValidation(t, v1, v2, v3, v4)

	_, err := f.svc.Cast(pool, c.ID, v1, claim.Reject, "", 10)
	require.NoError(t, err)
	_, err = f.svc.Cast(pool, c.ID, v2, claim.Approve, "", 10)
	require.NoError(t, err)
	out, err := f.svc.Cast(pool, c.ID, v3, claim.Reject, "", 10)
	require.NoError(t, err)
	assert.False(t, out.Finalized, "threshold of 4 validators is 3")

	out, err = f.svc.Cast(pool, c.ID, v4, claim.Reject, "", 10)
	require.NoError(t, err)
	assert.True(t, out.Finalized)
	assert.Equal(t, claim.Rejected, out.Claim.Status)
	assert.Zero(t, out.Claim.PayoutAmount)
	require.Len(t, out.Slashes, 1)
	assert.Equal(t, v2, out.Slashes[0].Validator)
}

func TestCastPreconditions(t *testing.T) {
	f := newFixture(t)
	c := f.claimUnderValidation(t, v1, v2, v3)

	_, err := f.svc.Cast(pool, c.ID, v4, claim.Approve, "", 10)
	assert.ErrorIs(t, err, reverts.ErrNotAssignedValidator)

	_, err = f.svc.Cast(pool, c.ID, v1, claim.Approve, strings.Repeat("j", 201), 10)
	assert.ErrorIs(t, err, reverts.ErrJustificationTooLong)

	_, err = f.svc.Cast(pool, c.ID, v1, claim.Decision(9), "", 10)
	assert.ErrorIs(t, err, reverts.ErrInvalidDecision)

	_, err = f.svc.Cast(pool, c.ID, v1, claim.Approve, strings.Repeat("j", 200), 10)
	require.NoError(t, err)
	_, err = f.svc.Cast(pool, c.ID, v1, claim.Reject, "", 11)
	assert.ErrorIs(t, err, reverts.ErrDuplicateVote)

	_, err = f.svc.Cast(pool, mutual.Blake2b([]byte("missing")), v1, claim.Approve, "", 10)
	assert.ErrorIs(t, err, reverts.ErrUnknownClaim)

	pending, err := f.claims.Create(&claim.Submission{Pool: pool.ID, IncidentType: claim.Other, Amount: 1}, 3)
	require.NoError(t, err)
	_, err = f.svc.Cast(pool, pending.ID, v1, claim.Approve, "", 10)
	assert.ErrorIs(t, err, reverts.ErrInvalidStateTransition)
}
