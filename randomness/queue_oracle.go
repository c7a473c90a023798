// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"sync"

	"github.com/qianbin/drlp"

	"github.com/vechain/mutual/mutual"
)

// Pending is an oracle request waiting for delivery.
type Pending struct {
	ID      mutual.Bytes32
	Purpose Purpose
	Alpha   []byte
}

// QueueOracle queues requests for delivery by the caller. It suits tests and
// deployments where randomness is fed in from outside.
type QueueOracle struct {
	lock    sync.Mutex
	nonce   uint64
	pending []Pending
}

var _ Oracle = (*QueueOracle)(nil)

func (o *QueueOracle) Request(purpose Purpose, alpha []byte) (mutual.Bytes32, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.nonce++
	id := mutual.Blake2b([]byte("queue-oracle"), drlp.AppendUint(nil, o.nonce), alpha)
	o.pending = append(o.pending, Pending{ID: id, Purpose: purpose, Alpha: alpha})
	return id, nil
}

// Pending returns queued requests without removing them.
func (o *QueueOracle) Pending() []Pending {
	o.lock.Lock()
	defer o.lock.Unlock()

	return append([]Pending(nil), o.pending...)
}

// Take removes and returns all queued requests.
func (o *QueueOracle) Take() []Pending {
	o.lock.Lock()
	defer o.lock.Unlock()

	taken := o.pending
	o.pending = nil
	return taken
}
