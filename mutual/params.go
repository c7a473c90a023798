// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mutual

// Constants of the adjudication protocol.
const (
	MaxReputation     uint64 = 10000
	InitialReputation uint64 = 5000
	ReputationReward  uint64 = 100 // granted to validators voting with the majority.
	ReputationPenalty uint64 = 200 // deducted from validators voting against the majority.

	SlashRatePerValidator uint64 = 2   // percent of stake slashed per required validator.
	MaxSlashRate          uint64 = 100 // percent

	DefaultRegistryCapacity = 100
	MinValidatorsFloor      = 3

	MaxEvidenceLength      = 100 // bytes
	MaxJustificationLength = 200 // bytes
)
