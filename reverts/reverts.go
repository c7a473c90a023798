// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// ErrRevert is a rejected operation. A rejected operation leaves no trace in state.
type ErrRevert struct {
	kind    *ErrRevert
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

// Newf returns a revert of the given kind carrying a detailed message.
func Newf(kind *ErrRevert, format string, args ...any) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: kind.message + ": " + fmt.Sprintf(format, args...),
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Kind returns the sentinel this revert was derived from.
func (e *ErrRevert) Kind() *ErrRevert {
	if e.kind == nil {
		return e
	}
	return e.kind
}

// Is reports whether target is the kind of e.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	if !ok {
		return false
	}
	return e == t || e.Kind() == t
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrInsufficientStake          = New("insufficient stake")
	ErrRegistryFull               = New("validator registry full")
	ErrNotAssignedValidator       = New("validator not assigned to claim")
	ErrDuplicateVote              = New("duplicate vote")
	ErrClaimAlreadyFinalized      = New("claim already finalized")
	ErrIncidentBeforeJoin         = New("incident before membership")
	ErrClaimWindowExpired         = New("claim window expired")
	ErrAmountExceedsCoverage      = New("amount exceeds coverage")
	ErrInsufficientPoolFunds      = New("insufficient pool funds")
	ErrRandomnessAlreadyFulfilled = New("randomness already fulfilled")
	ErrInvalidStateTransition     = New("invalid state transition")

	ErrNotPoolMember          = New("not a pool member")
	ErrUnknownPool            = New("unknown pool")
	ErrUnknownClaim           = New("unknown claim")
	ErrUnknownRequest         = New("unknown randomness request")
	ErrUnknownValidator       = New("unknown validator")
	ErrInvalidAmount          = New("invalid amount")
	ErrInvalidTimestamp       = New("invalid timestamp")
	ErrEvidenceTooLong        = New("evidence too long")
	ErrJustificationTooLong   = New("justification too long")
	ErrInsufficientValidators = New("insufficient validators")
	ErrNothingToDistribute    = New("nothing to distribute")
	ErrInvalidIncidentType    = New("invalid incident type")
	ErrInvalidDecision        = New("invalid decision")
)
