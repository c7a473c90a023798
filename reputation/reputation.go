// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reputation keeps per pool validator records and the reward and penalty rules.
package reputation

import (
	"github.com/holiman/uint256"

	"github.com/vechain/mutual/mutual"
)

// Reward returns reputation r after a majority aligned vote, capped at MaxReputation.
func Reward(r uint64) uint64 {
	if r >= mutual.MaxReputation-mutual.ReputationReward {
		return mutual.MaxReputation
	}
	return r + mutual.ReputationReward
}

// Penalize returns reputation r after a dissenting vote, floored at zero.
func Penalize(r uint64) uint64 {
	if r <= mutual.ReputationPenalty {
		return 0
	}
	return r - mutual.ReputationPenalty
}

// SlashRate returns the slash percentage for a pool requiring minValidators votes.
func SlashRate(minValidators uint64) uint64 {
	if minValidators >= mutual.MaxSlashRate/mutual.SlashRatePerValidator {
		return mutual.MaxSlashRate
	}
	return minValidators * mutual.SlashRatePerValidator
}

// SlashAmount returns floor(stake * rate / 100).
func SlashAmount(stake, minValidators uint64) uint64 {
	amount := uint256.NewInt(stake)
	amount.Mul(amount, uint256.NewInt(SlashRate(minValidators)))
	amount.Div(amount, uint256.NewInt(100))
	return amount.Uint64()
}

// Record is the state of a validator in one pool. Records are never deleted.
type Record struct {
	Pool       mutual.Address
	Validator  mutual.Address
	Stake      uint64
	Reputation uint64
	Active     bool

	ValidationsCompleted  uint64
	SuccessfulValidations uint64
	TotalSlashed          uint64
	LastValidation        uint64
	StakedAt              uint64
}

// NewRecord creates the record of a newly registered validator.
func NewRecord(pool, validator mutual.Address, stake, now uint64) *Record {
	return &Record{
		Pool:       pool,
		Validator:  validator,
		Stake:      stake,
		Reputation: mutual.InitialReputation,
		Active:     true,
		StakedAt:   now,
	}
}

// RecordAligned applies the outcome of a vote cast with the majority.
func (r *Record) RecordAligned(now uint64) {
	r.Reputation = Reward(r.Reputation)
	r.SuccessfulValidations++
	r.ValidationsCompleted++
	r.LastValidation = now
}

// RecordDissent applies the outcome of a vote cast against the majority.
// The slash is computed on the stake held before this call and the record is
// deactivated when the remaining stake drops below minStake. It returns the slashed amount.
func (r *Record) RecordDissent(now, minValidators, minStake uint64) uint64 {
	slashed := SlashAmount(r.Stake, minValidators)
	r.Stake -= slashed
	r.TotalSlashed += slashed
	r.Reputation = Penalize(r.Reputation)
	r.ValidationsCompleted++
	r.LastValidation = now
	if r.Stake < minStake {
		r.Active = false
	}
	return slashed
}
