// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package claim models claims and the transitions between their statuses.
package claim

import (
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
)

// Status is the position of a claim in its life-cycle.
type Status uint8

const (
	Pending Status = iota + 1
	UnderValidation
	Approved
	Rejected
	Queued
	Distributed
)

var statusNames = map[Status]string{
	Pending:         "pending",
	UnderValidation: "under-validation",
	Approved:        "approved",
	Rejected:        "rejected",
	Queued:          "queued",
	Distributed:     "distributed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

var transitions = map[Status][]Status{
	Pending:         {UnderValidation},
	UnderValidation: {Approved, Rejected},
	Approved:        {Queued},
	Queued:          {Distributed},
}

// CanTransition reports whether a claim may move from s to to.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsFinalized reports whether voting on the claim has concluded.
func (s Status) IsFinalized() bool {
	return s == Approved || s == Rejected || s == Queued || s == Distributed
}

// IncidentType classifies the covered event.
type IncidentType uint8

const (
	MedicalEmergency IncidentType = iota + 1
	NaturalDisaster
	Accident
	CropFailure
	PropertyDamage
	Other
)

var incidentNames = map[IncidentType]string{
	MedicalEmergency: "medical-emergency",
	NaturalDisaster:  "natural-disaster",
	Accident:         "accident",
	CropFailure:      "crop-failure",
	PropertyDamage:   "property-damage",
	Other:            "other",
}

func (t IncidentType) String() string {
	if name, ok := incidentNames[t]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether t is a known incident type.
func (t IncidentType) Valid() bool {
	_, ok := incidentNames[t]
	return ok
}

// ParseIncidentType parses the textual incident type.
func ParseIncidentType(s string) (IncidentType, bool) {
	for t, name := range incidentNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Decision is the verdict of a vote.
type Decision uint8

const (
	Approve Decision = iota + 1
	Reject
)

func (d Decision) String() string {
	switch d {
	case Approve:
		return "approve"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Vote is an immutable verdict of an assigned validator.
type Vote struct {
	Validator     mutual.Address
	Decision      Decision
	Justification string
	Timestamp     uint64
}

// Claim is a request for payout after a covered incident.
type Claim struct {
	ID           mutual.Bytes32
	Pool         mutual.Address
	Claimant     mutual.Address
	IncidentType IncidentType
	Amount       uint64
	IncidentAt   uint64
	Evidence     string
	Status       Status
	Validators   []mutual.Address
	Votes        []Vote
	CreatedAt    uint64
	Nonce        uint64

	AssignmentRequest mutual.Bytes32 // randomness request selecting the validators
	Seed              mutual.Bytes32 // randomness the validators were selected with
	ResolvedAt        uint64
	PayoutAmount      uint64
}

// Transition moves the claim to status to.
func (c *Claim) Transition(to Status) error {
	if !c.Status.CanTransition(to) {
		return reverts.Newf(reverts.ErrInvalidStateTransition, "claim %v from %v to %v", c.ID, c.Status, to)
	}
	c.Status = to
	return nil
}

// IsAssigned reports whether v is on the claim's panel.
func (c *Claim) IsAssigned(v mutual.Address) bool {
	for _, a := range c.Validators {
		if a == v {
			return true
		}
	}
	return false
}

// HasVoted reports whether v has already voted.
func (c *Claim) HasVoted(v mutual.Address) bool {
	for _, vote := range c.Votes {
		if vote.Validator == v {
			return true
		}
	}
	return false
}

// Tally counts votes by decision.
func (c *Claim) Tally() (approvals, rejections int) {
	for _, vote := range c.Votes {
		switch vote.Decision {
		case Approve:
			approvals++
		case Reject:
			rejections++
		}
	}
	return
}

// Threshold is the number of equal votes that decides the claim, a strict majority of the panel.
func (c *Claim) Threshold() int {
	return len(c.Validators)/2 + 1
}
