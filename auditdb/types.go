// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auditdb

import (
	"github.com/vechain/mutual/engine"
	"github.com/vechain/mutual/mutual"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive range of event timestamps. To below From means unbounded.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects recorded events. Nil fields match everything.
type Filter struct {
	Pool    *mutual.Address
	Claim   *mutual.Bytes32
	Account *mutual.Address
	Kinds   []engine.EventKind
	Range   *Range
	Options *Options
	Order   Order
}

// Record is an event as stored in the audit trail.
type Record struct {
	Seq     uint64
	Session string // identifies the process that wrote the event
	engine.Event
}
