// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"github.com/vechain/mutual/mutual"
)

type EventKind uint8

const (
	ValidatorStaked EventKind = iota + 1
	ClaimSubmitted
	ValidatorsAssigned
	VoteCast
	ClaimFinalized
	ValidatorSlashed
	ClaimQueued
	RoundOpened
	ClaimPaid
	RoundCompleted
	RandomnessReissued
)

var eventNames = map[EventKind]string{
	ValidatorStaked:    "validator-staked",
	ClaimSubmitted:     "claim-submitted",
	ValidatorsAssigned: "validators-assigned",
	VoteCast:           "vote-cast",
	ClaimFinalized:     "claim-finalized",
	ValidatorSlashed:   "validator-slashed",
	ClaimQueued:        "claim-queued",
	RoundOpened:        "round-opened",
	ClaimPaid:          "claim-paid",
	RoundCompleted:     "round-completed",
	RandomnessReissued: "randomness-reissued",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEventKind returns the kind named s.
func ParseEventKind(s string) (EventKind, bool) {
	for k, name := range eventNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Event records a committed state change.
type Event struct {
	Kind      EventKind
	Pool      mutual.Address
	Claim     mutual.Bytes32 // zero for validator and round events
	Account   mutual.Address // validator or claimant
	Amount    uint64
	Round     uint64
	Detail    string
	Timestamp uint64
}
