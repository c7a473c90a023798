// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/mutual/mutual"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a typed key/value view in the state, values are rlp encoded.
type Mapping[K Key, V any] struct {
	state   *State
	basePos mutual.Bytes32
}

func NewMapping[K Key, V any](state *State, name string) *Mapping[K, V] {
	return &Mapping[K, V]{state: state, basePos: mutual.Blake2b([]byte(name))}
}

func (m *Mapping[K, V]) position(key K) mutual.Bytes32 {
	return mutual.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value for key, exist is false if nothing stored.
func (m *Mapping[K, V]) Get(key K) (value V, exist bool, err error) {
	err = m.state.DecodeStorage(m.position(key), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		exist = true
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores value for key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.state.EncodeStorage(m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete removes the value for key.
func (m *Mapping[K, V]) Delete(key K) {
	m.state.SetRaw(m.position(key), nil)
}
