// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/mutual/lvldb"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/state"
)

func newBroker(t *testing.T, oracle Oracle) *Broker {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBroker(state.New(db, 1), oracle)
}

func TestRequestFulfill(t *testing.T) {
	oracle := &QueueOracle{}
	broker := newBroker(t, oracle)
	pool := mutual.BytesToAddress([]byte("pool"))
	consumer := mutual.Blake2b([]byte("claim"))

	req, err := broker.Request(AssignValidators, pool, consumer, consumer.Bytes(), 10)
	require.NoError(t, err)
	assert.False(t, req.Fulfilled)

	pending := oracle.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, req.ID, pending[0].ID)
	assert.Equal(t, AssignValidators, pending[0].Purpose)

	result := mutual.Blake2b([]byte("random"))
	got, err := broker.Fulfill(req.ID, result, 11)
	require.NoError(t, err)
	assert.True(t, got.Fulfilled)
	assert.Equal(t, result, got.Result)
	assert.Equal(t, consumer, got.Consumer)

	_, err = broker.Fulfill(req.ID, result, 12)
	assert.ErrorIs(t, err, reverts.ErrRandomnessAlreadyFulfilled)

	_, err = broker.Fulfill(mutual.Blake2b([]byte("nope")), result, 12)
	assert.ErrorIs(t, err, reverts.ErrUnknownRequest)

	assert.Len(t, oracle.Take(), 1)
	assert.Empty(t, oracle.Pending())
}

type fixedOracle struct {
	id  mutual.Bytes32
	err error
}

func (o fixedOracle) Request(Purpose, []byte) (mutual.Bytes32, error) { return o.id, o.err }

func TestOracleFailures(t *testing.T) {
	pool := mutual.BytesToAddress([]byte("pool"))

	broker := newBroker(t, fixedOracle{err: errors.New("offline")})
	_, err := broker.Request(SelectForDistribution, pool, mutual.Bytes32{}, nil, 1)
	assert.ErrorContains(t, err, "offline")

	broker = newBroker(t, fixedOracle{id: mutual.Blake2b([]byte("same"))})
	_, err = broker.Request(SelectForDistribution, pool, mutual.Bytes32{}, nil, 1)
	require.NoError(t, err)
	_, err = broker.Request(SelectForDistribution, pool, mutual.Bytes32{}, nil, 1)
	assert.ErrorContains(t, err, "duplicate request id")
}

func TestPendingAndReissue(t *testing.T) {
	oracle := &QueueOracle{}
	broker := newBroker(t, oracle)
	pool := mutual.BytesToAddress([]byte("pool"))
	first := mutual.Blake2b([]byte("first"))
	second := mutual.Blake2b([]byte("second"))

	a, err := broker.Request(AssignValidators, pool, first, first.Bytes(), 10)
	require.NoError(t, err)
	b, err := broker.Request(SelectForDistribution, pool, second, second.Bytes(), 11)
	require.NoError(t, err)

	pending, err := broker.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)
	assert.Equal(t, b.ID, pending[1].ID)

	_, err = broker.Fulfill(a.ID, mutual.Blake2b([]byte("r")), 12)
	require.NoError(t, err)
	_, err = broker.Reissue(a.ID, 13)
	assert.ErrorIs(t, err, reverts.ErrRandomnessAlreadyFulfilled)

	oracle.Take()
	reissued, err := broker.Reissue(b.ID, 20)
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, reissued.ID)
	assert.Equal(t, second, reissued.Consumer)
	assert.Equal(t, SelectForDistribution, reissued.Purpose)
	assert.Equal(t, second.Bytes(), reissued.Alpha)
	assert.Equal(t, uint64(20), reissued.RequestedAt)

	queued := oracle.Take()
	require.Len(t, queued, 1)
	assert.Equal(t, reissued.ID, queued[0].ID)

	pending, err = broker.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, reissued.ID, pending[0].ID)

	old, err := broker.Get(b.ID)
	require.NoError(t, err)
	assert.False(t, old.Waiting())
	assert.Equal(t, reissued.ID, old.Replaced)

	_, err = broker.Fulfill(b.ID, mutual.Blake2b([]byte("late")), 21)
	assert.ErrorIs(t, err, reverts.ErrInvalidStateTransition)
	_, err = broker.Reissue(b.ID, 21)
	assert.ErrorIs(t, err, reverts.ErrInvalidStateTransition)

	_, err = broker.Fulfill(reissued.ID, mutual.Blake2b([]byte("r")), 22)
	require.NoError(t, err)
	pending, err = broker.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
