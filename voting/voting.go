// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package voting records validator votes and settles a claim once a strict majority agrees.
package voting

import (
	"github.com/pkg/errors"

	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/membership"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reputation"
	"github.com/vechain/mutual/reverts"
)

var logger = log.WithContext("pkg", "voting")

// Slash is the penalty applied to a dissenting validator.
type Slash struct {
	Validator   mutual.Address
	Amount      uint64
	Deactivated bool
}

// Outcome is the result of a cast vote.
type Outcome struct {
	Claim     *claim.Claim
	Vote      claim.Vote
	Finalized bool
	Aligned   []mutual.Address
	Slashes   []Slash
}

// Service applies votes to claims and validator records.
// Moving slashed stake is left to the caller, see Outcome.Slashes.
type Service struct {
	claims  *claim.Service
	records *reputation.Service
}

func New(claims *claim.Service, records *reputation.Service) *Service {
	return &Service{claims: claims, records: records}
}

// Cast records the vote of validator on claim id and finalizes the claim when
// approvals or rejections reach the threshold.
func (s *Service) Cast(pool *membership.Pool, id mutual.Bytes32, validator mutual.Address, decision claim.Decision, justification string, now uint64) (*Outcome, error) {
	c, err := s.claims.Get(id)
	if err != nil {
		return nil, err
	}
	if c.Status.IsFinalized() {
		return nil, reverts.Newf(reverts.ErrClaimAlreadyFinalized, "claim %v is %v", id, c.Status)
	}
	if c.Status != claim.UnderValidation {
		return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "claim %v is %v", id, c.Status)
	}
	if !c.IsAssigned(validator) {
		return nil, reverts.Newf(reverts.ErrNotAssignedValidator, "%v", validator)
	}
	if c.HasVoted(validator) {
		return nil, reverts.Newf(reverts.ErrDuplicateVote, "%v", validator)
	}
	if decision != claim.Approve && decision != claim.Reject {
		return nil, reverts.Newf(reverts.ErrInvalidDecision, "%d", decision)
	}
	if len(justification) > mutual.MaxJustificationLength {
		return nil, reverts.Newf(reverts.ErrJustificationTooLong, "%d bytes", len(justification))
	}

	vote := claim.Vote{
		Validator:     validator,
		Decision:      decision,
		Justification: justification,
		Timestamp:     now,
	}
	c.Votes = append(c.Votes, vote)
	outcome := &Outcome{Claim: c, Vote: vote}

	approvals, rejections := c.Tally()
	threshold := c.Threshold()
	switch {
	case approvals >= threshold:
		err = s.finalize(pool, outcome, claim.Approve, now)
	case rejections >= threshold:
		err = s.finalize(pool, outcome, claim.Reject, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.claims.Set(c); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *Service) finalize(pool *membership.Pool, outcome *Outcome, majority claim.Decision, now uint64) error {
	c := outcome.Claim
	for _, vote := range c.Votes {
		rec, err := s.records.Get(c.Pool, vote.Validator)
		if err != nil {
			return err
		}
		if rec == nil {
			return errors.Errorf("no record for assigned validator %v", vote.Validator)
		}

		if vote.Decision == majority {
			rec.RecordAligned(now)
			outcome.Aligned = append(outcome.Aligned, vote.Validator)
		} else {
			wasActive := rec.Active
			amount := rec.RecordDissent(now, pool.MinValidators, pool.MinStake)
			outcome.Slashes = append(outcome.Slashes, Slash{
				Validator:   vote.Validator,
				Amount:      amount,
				Deactivated: wasActive && !rec.Active,
			})
		}
		if err := s.records.Set(rec); err != nil {
			return err
		}
	}

	status := claim.Rejected
	if majority == claim.Approve {
		status = claim.Approved
		c.PayoutAmount = c.Amount
	}
	if err := c.Transition(status); err != nil {
		return err
	}
	c.ResolvedAt = now
	outcome.Finalized = true

	logger.Debug("claim finalized", "id", c.ID, "status", c.Status, "aligned", len(outcome.Aligned), "slashed", len(outcome.Slashes))
	return nil
}
