// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package membership exposes pool parameters and member coverage.
package membership

import (
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
)

// PoolType classifies the risk a pool covers.
type PoolType uint8

const (
	PoolGeneral PoolType = iota
	PoolMedical
	PoolWeather
	PoolCrop
)

func (t PoolType) String() string {
	switch t {
	case PoolMedical:
		return "medical"
	case PoolWeather:
		return "weather"
	case PoolCrop:
		return "crop"
	default:
		return "general"
	}
}

// ParsePoolType parses the textual pool type, unknown names yield an error.
func ParsePoolType(s string) (PoolType, error) {
	for _, t := range []PoolType{PoolGeneral, PoolMedical, PoolWeather, PoolCrop} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, reverts.Newf(reverts.ErrUnknownPool, "pool type %q", s)
}

// Pool holds the parameters of a risk pool.
type Pool struct {
	ID            mutual.Address
	Type          PoolType
	ClaimWindow   uint64 // seconds after the incident a claim is accepted
	MinValidators uint64
	MinStake      uint64
	Fund          mutual.Address // ledger account paying claims
	Custody       mutual.Address // ledger account holding validator stakes
}

// Member is the coverage of a pool member.
type Member struct {
	Pool          mutual.Address
	Address       mutual.Address
	JoinedAt      uint64
	CoverageLimit uint64
	Active        bool
}

// Service provides pool and membership lookups.
// Unknown pools fail with reverts.ErrUnknownPool and unknown members with reverts.ErrNotPoolMember.
type Service interface {
	Pool(id mutual.Address) (*Pool, error)
	Member(pool, addr mutual.Address) (*Member, error)
}
