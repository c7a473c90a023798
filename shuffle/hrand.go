// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shuffle

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// hash based random generator
type hrand struct {
	seed  []byte
	round uint32
	hash  [32]byte
	seq   uint32
}

func newHrand(seed []byte) *hrand {
	hseed := make([]byte, len(seed)+4)
	copy(hseed[4:], seed)
	return &hrand{seed: hseed}
}

func (hr *hrand) nextRound() {
	binary.BigEndian.PutUint32(hr.seed, hr.round)
	hr.hash = sha256.Sum256(hr.seed)
	hr.round++
}

func (hr *hrand) uint32() uint32 {
	i := hr.seq % 8
	if i == 0 {
		hr.nextRound()
	}
	hr.seq++
	return binary.BigEndian.Uint32(hr.hash[i*4:])
}

// returns int in [0, n) without modulo bias.
// panic if n <= 0
func (hr *hrand) Intn(n int) int {
	if n <= 0 {
		panic("n must > 0")
	}
	bound := uint32(n)
	// values at or above limit would favour small results
	limit := math.MaxUint32 - (math.MaxUint32%bound+1)%bound
	for {
		v := hr.uint32()
		if v <= limit {
			return int(v % bound)
		}
	}
}
