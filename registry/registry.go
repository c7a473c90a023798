// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry keeps the bounded validator set of every pool.
package registry

import (
	"slices"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/membership"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reputation"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/shuffle"
	"github.com/vechain/mutual/state"
)

var logger = log.WithContext("pkg", "registry")

// Registry holds, per pool, an arena of validator slots. A slot is taken on the
// first stake and never released, deactivated validators keep theirs.
type Registry struct {
	capacity int
	slots    *state.Mapping[mutual.Address, []mutual.Address]
	records  *reputation.Service
}

// New creates a registry with capacity slots per pool.
func New(st *state.State, records *reputation.Service, capacity int) *Registry {
	if capacity <= 0 {
		capacity = mutual.DefaultRegistryCapacity
	}
	return &Registry{
		capacity: capacity,
		slots:    state.NewMapping[mutual.Address, []mutual.Address](st, "registry-slots"),
		records:  records,
	}
}

// Capacity returns the maximum number of validators per pool.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Slots returns validators of pool in registration order.
func (r *Registry) Slots(pool mutual.Address) ([]mutual.Address, error) {
	slots, _, err := r.slots.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "get registry slots")
	}
	return slots, nil
}

// Stake adds amount to the stake of validator, registering it when new.
// The returned bool reports whether a slot was taken.
func (r *Registry) Stake(pool *membership.Pool, validator mutual.Address, amount, now uint64) (*reputation.Record, bool, error) {
	if amount == 0 || amount < pool.MinStake {
		return nil, false, reverts.Newf(reverts.ErrInsufficientStake, "stake %d below minimum %d", amount, pool.MinStake)
	}

	rec, err := r.records.Get(pool.ID, validator)
	if err != nil {
		return nil, false, err
	}

	registered := false
	if rec == nil {
		slots, err := r.Slots(pool.ID)
		if err != nil {
			return nil, false, err
		}
		if len(slots) >= r.capacity {
			return nil, false, reverts.Newf(reverts.ErrRegistryFull, "capacity %d", r.capacity)
		}
		if err := r.slots.Set(pool.ID, append(slots, validator)); err != nil {
			return nil, false, errors.Wrap(err, "set registry slots")
		}
		rec = reputation.NewRecord(pool.ID, validator, amount, now)
		registered = true
	} else {
		sum, overflow := math.SafeAdd(rec.Stake, amount)
		if overflow {
			return nil, false, reverts.Newf(reverts.ErrInvalidAmount, "stake overflow")
		}
		rec.Stake = sum
		rec.StakedAt = now
		if !rec.Active && rec.Stake >= pool.MinStake {
			rec.Active = true
			logger.Debug("validator reactivated", "pool", pool.ID, "validator", validator, "stake", rec.Stake)
		}
	}

	if err := r.records.Set(rec); err != nil {
		return nil, false, err
	}
	return rec, registered, nil
}

// Candidates returns the active validators of pool except exclude, in ascending address order.
func (r *Registry) Candidates(pool, exclude mutual.Address) ([]mutual.Address, error) {
	slots, err := r.Slots(pool)
	if err != nil {
		return nil, err
	}
	candidates := make([]mutual.Address, 0, len(slots))
	for _, v := range slots {
		if v == exclude {
			continue
		}
		rec, err := r.records.Get(pool, v)
		if err != nil {
			return nil, err
		}
		if rec != nil && rec.Active {
			candidates = append(candidates, v)
		}
	}
	slices.SortFunc(candidates, mutual.Address.Compare)
	return candidates, nil
}

// Select draws k distinct candidates using seed.
func (r *Registry) Select(pool, exclude mutual.Address, seed []byte, k int) ([]mutual.Address, error) {
	candidates, err := r.Candidates(pool, exclude)
	if err != nil {
		return nil, err
	}
	if len(candidates) < k {
		return nil, reverts.Newf(reverts.ErrInsufficientValidators, "%d active, %d required", len(candidates), k)
	}

	picked := make([]mutual.Address, 0, k)
	for _, i := range shuffle.Sample(seed, len(candidates), k) {
		picked = append(picked, candidates[i])
	}
	return picked, nil
}
