// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"math"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"github.com/qianbin/drlp"

	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/shuffle"
	"github.com/vechain/mutual/state"
)

var logger = log.WithContext("pkg", "distribution")

// Summary is the per pool distribution bookkeeping.
type Summary struct {
	Rounds           uint64 // number of rounds opened
	Pending          uint64 // number of the round awaiting randomness, 0 if none
	LastDistribution uint64
}

// Service keeps the queues and round history of all pools.
type Service struct {
	claims    *claim.Service
	queues    *state.Mapping[mutual.Address, []Entry]
	rounds    *state.Mapping[mutual.Bytes32, Round]
	summaries *state.Mapping[mutual.Address, Summary]
}

func New(st *state.State, claims *claim.Service) *Service {
	return &Service{
		claims:    claims,
		queues:    state.NewMapping[mutual.Address, []Entry](st, "distribution-queues"),
		rounds:    state.NewMapping[mutual.Bytes32, Round](st, "distribution-rounds"),
		summaries: state.NewMapping[mutual.Address, Summary](st, "distribution-summaries"),
	}
}

// RoundKey identifies round number of pool.
func RoundKey(pool mutual.Address, number uint64) mutual.Bytes32 {
	return mutual.Blake2b([]byte("round"), pool.Bytes(), drlp.AppendUint(nil, number))
}

// Queue returns entries of pool waiting for payout in enqueue order.
func (s *Service) Queue(pool mutual.Address) ([]Entry, error) {
	q, _, err := s.queues.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "get queue")
	}
	return q, nil
}

func (s *Service) Summary(pool mutual.Address) (*Summary, error) {
	sum, _, err := s.summaries.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "get distribution summary")
	}
	return &sum, nil
}

// Round returns round number of pool, nil if it does not exist.
func (s *Service) Round(pool mutual.Address, number uint64) (*Round, error) {
	r, exist, err := s.rounds.Get(RoundKey(pool, number))
	if err != nil {
		return nil, errors.Wrap(err, "get round")
	}
	if !exist {
		return nil, nil
	}
	return &r, nil
}

// CurrentRound returns the round of pool awaiting randomness, nil if none.
func (s *Service) CurrentRound(pool mutual.Address) (*Round, error) {
	sum, err := s.Summary(pool)
	if err != nil {
		return nil, err
	}
	if sum.Pending == 0 {
		return nil, nil
	}
	return s.Round(pool, sum.Pending)
}

func (s *Service) SetRound(r *Round) error {
	if err := s.rounds.Set(RoundKey(r.Pool, r.Number), *r); err != nil {
		return errors.Wrap(err, "set round")
	}
	return nil
}

// Enqueue moves an approved claim into the queue of its pool.
func (s *Service) Enqueue(id mutual.Bytes32, now uint64) (*Entry, error) {
	c, err := s.claims.Get(id)
	if err != nil {
		return nil, err
	}
	if err := c.Transition(claim.Queued); err != nil {
		return nil, err
	}
	if err := s.claims.Set(c); err != nil {
		return nil, err
	}

	q, err := s.Queue(c.Pool)
	if err != nil {
		return nil, err
	}
	entry := Entry{
		Claim:      c.ID,
		Claimant:   c.Claimant,
		Amount:     c.PayoutAmount,
		EnqueuedAt: now,
	}
	if err := s.queues.Set(c.Pool, append(q, entry)); err != nil {
		return nil, errors.Wrap(err, "set queue")
	}
	logger.Debug("claim queued", "id", c.ID, "pool", c.Pool, "amount", entry.Amount, "depth", len(q)+1)
	return &entry, nil
}

// Open snapshots the queue of pool against funds and records a new round.
// The round stays AwaitingRandomness until Settle is called, which the caller
// may do at once when the round is not oversubscribed.
func (s *Service) Open(pool mutual.Address, funds, now uint64) (*Round, error) {
	sum, err := s.Summary(pool)
	if err != nil {
		return nil, err
	}
	if sum.Pending != 0 {
		return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "round %d of pool %v awaiting randomness", sum.Pending, pool)
	}
	q, err := s.Queue(pool)
	if err != nil {
		return nil, err
	}
	if len(q) == 0 {
		return nil, reverts.Newf(reverts.ErrNothingToDistribute, "pool %v", pool)
	}

	var (
		total     uint64
		overflow  bool
		minAmount uint64 = math.MaxUint64
	)
	for _, e := range q {
		if !overflow {
			total, overflow = ethmath.SafeAdd(total, e.Amount)
		}
		minAmount = min(minAmount, e.Amount)
	}
	oversubscribed := overflow || total > funds
	if oversubscribed && funds < minAmount {
		return nil, reverts.Newf(reverts.ErrInsufficientPoolFunds, "funds %d, smallest claim %d", funds, minAmount)
	}

	sum.Rounds++
	sum.Pending = sum.Rounds
	r := &Round{
		Pool:           pool,
		Number:         sum.Rounds,
		Funds:          funds,
		Snapshot:       q,
		Status:         AwaitingRandomness,
		Oversubscribed: oversubscribed,
		StartedAt:      now,
	}
	if err := s.SetRound(r); err != nil {
		return nil, err
	}
	if err := s.summaries.Set(pool, *sum); err != nil {
		return nil, errors.Wrap(err, "set distribution summary")
	}
	logger.Debug("round opened", "pool", pool, "round", r.Number, "entries", len(q), "total", total, "funds", funds)
	return r, nil
}

// Settle completes the pending round number of pool. Every snapshot entry is
// admitted unless the round is oversubscribed, then the entries are visited
// in the permutation derived from seed and selected greedily.
// Admitted claims become Distributed and leave the queue, skipped claims stay.
func (s *Service) Settle(pool mutual.Address, number uint64, seed []byte, now uint64) (*Round, error) {
	r, err := s.Round(pool, number)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.Errorf("round %d of pool %v not found", number, pool)
	}
	if r.Status != AwaitingRandomness {
		return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "round %d is %v", number, r.Status)
	}

	var sel Selection
	if r.Oversubscribed {
		sel = Select(r.Snapshot, shuffle.Permutation(seed, len(r.Snapshot)), r.Funds)
	} else {
		perm := make([]int, len(r.Snapshot))
		for i := range perm {
			perm[i] = i
		}
		sel = Select(r.Snapshot, perm, r.Funds)
	}

	admitted := make(map[mutual.Bytes32]bool, len(sel.Admitted))
	for _, i := range sel.Admitted {
		e := &r.Snapshot[i]
		e.Distributed = true
		admitted[e.Claim] = true
		r.Admitted = append(r.Admitted, e.Claim)

		c, err := s.claims.Get(e.Claim)
		if err != nil {
			return nil, err
		}
		if err := c.Transition(claim.Distributed); err != nil {
			return nil, err
		}
		if err := s.claims.Set(c); err != nil {
			return nil, err
		}
	}
	for _, i := range sel.Skipped {
		r.Skipped = append(r.Skipped, r.Snapshot[i].Claim)
	}
	r.Paid = sel.Paid
	r.Status = Completed
	r.CompletedAt = now

	// entries enqueued after the snapshot are kept as well
	q, err := s.Queue(pool)
	if err != nil {
		return nil, err
	}
	remaining := q[:0]
	for _, e := range q {
		if !admitted[e.Claim] {
			remaining = append(remaining, e)
		}
	}
	if err := s.queues.Set(pool, remaining); err != nil {
		return nil, errors.Wrap(err, "set queue")
	}

	sum, err := s.Summary(pool)
	if err != nil {
		return nil, err
	}
	sum.Pending = 0
	sum.LastDistribution = now
	if err := s.summaries.Set(pool, *sum); err != nil {
		return nil, errors.Wrap(err, "set distribution summary")
	}
	if err := s.SetRound(r); err != nil {
		return nil, err
	}

	logger.Debug("round settled", "pool", pool, "round", number, "admitted", len(r.Admitted), "skipped", len(r.Skipped), "paid", r.Paid)
	return r, nil
}
