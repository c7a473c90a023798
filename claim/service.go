// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package claim

import (
	"github.com/pkg/errors"
	"github.com/qianbin/drlp"

	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/membership"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/state"
)

var logger = log.WithContext("pkg", "claim")

var nonceKey = mutual.Blake2b([]byte("claim-nonce"))

// Submission is the input of a new claim.
type Submission struct {
	Pool         mutual.Address
	Claimant     mutual.Address
	IncidentType IncidentType
	Amount       uint64
	IncidentAt   uint64
	Evidence     string
}

// Service stores claims in state.
type Service struct {
	claims *state.Mapping[mutual.Bytes32, Claim]
	nonces *state.Mapping[mutual.Bytes32, uint64]
}

func New(st *state.State) *Service {
	return &Service{
		claims: state.NewMapping[mutual.Bytes32, Claim](st, "claims"),
		nonces: state.NewMapping[mutual.Bytes32, uint64](st, "claim-nonces"),
	}
}

// Get returns the claim by id.
func (s *Service) Get(id mutual.Bytes32) (*Claim, error) {
	c, exist, err := s.claims.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "get claim")
	}
	if !exist {
		return nil, reverts.Newf(reverts.ErrUnknownClaim, "%v", id)
	}
	return &c, nil
}

// Set stores the claim.
func (s *Service) Set(c *Claim) error {
	if err := s.claims.Set(c.ID, *c); err != nil {
		return errors.Wrap(err, "set claim")
	}
	return nil
}

// Validate checks a submission against the pool rules and the claimant's coverage.
func Validate(pool *membership.Pool, member *membership.Member, sub *Submission, now uint64) error {
	if !member.Active {
		return reverts.Newf(reverts.ErrNotPoolMember, "coverage of %v inactive", sub.Claimant)
	}
	if !sub.IncidentType.Valid() {
		return reverts.Newf(reverts.ErrInvalidIncidentType, "%d", sub.IncidentType)
	}
	if sub.Amount == 0 {
		return reverts.Newf(reverts.ErrInvalidAmount, "zero amount")
	}
	if sub.Amount > member.CoverageLimit {
		return reverts.Newf(reverts.ErrAmountExceedsCoverage, "amount %d, coverage %d", sub.Amount, member.CoverageLimit)
	}
	if len(sub.Evidence) > mutual.MaxEvidenceLength {
		return reverts.Newf(reverts.ErrEvidenceTooLong, "%d bytes", len(sub.Evidence))
	}
	if sub.IncidentAt > now {
		return reverts.Newf(reverts.ErrInvalidTimestamp, "incident at %d is in the future", sub.IncidentAt)
	}
	if sub.IncidentAt < member.JoinedAt {
		return reverts.Newf(reverts.ErrIncidentBeforeJoin, "incident at %d, joined at %d", sub.IncidentAt, member.JoinedAt)
	}
	if now-sub.IncidentAt > pool.ClaimWindow {
		return reverts.Newf(reverts.ErrClaimWindowExpired, "incident at %d, window %d", sub.IncidentAt, pool.ClaimWindow)
	}
	return nil
}

// Create stores a new pending claim for a validated submission.
func (s *Service) Create(sub *Submission, now uint64) (*Claim, error) {
	nonce, _, err := s.nonces.Get(nonceKey)
	if err != nil {
		return nil, errors.Wrap(err, "get claim nonce")
	}
	nonce++
	if err := s.nonces.Set(nonceKey, nonce); err != nil {
		return nil, errors.Wrap(err, "set claim nonce")
	}

	c := &Claim{
		ID:           mutual.Blake2b([]byte("claim"), sub.Pool.Bytes(), sub.Claimant.Bytes(), drlp.AppendUint(nil, nonce)),
		Pool:         sub.Pool,
		Claimant:     sub.Claimant,
		IncidentType: sub.IncidentType,
		Amount:       sub.Amount,
		IncidentAt:   sub.IncidentAt,
		Evidence:     sub.Evidence,
		Status:       Pending,
		CreatedAt:    now,
		Nonce:        nonce,
	}
	if err := s.Set(c); err != nil {
		return nil, err
	}
	logger.Debug("claim created", "id", c.ID, "pool", c.Pool, "claimant", c.Claimant, "amount", c.Amount)
	return c, nil
}
