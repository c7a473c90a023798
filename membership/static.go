// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package membership

import (
	"sync"

	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
)

type memberKey struct {
	pool, addr mutual.Address
}

// Static is a Service backed by in-memory tables.
type Static struct {
	lock    sync.RWMutex
	pools   map[mutual.Address]Pool
	members map[memberKey]Member
}

var _ Service = (*Static)(nil)

func NewStatic() *Static {
	return &Static{
		pools:   make(map[mutual.Address]Pool),
		members: make(map[memberKey]Member),
	}
}

// AddPool registers or replaces a pool.
func (s *Static) AddPool(p Pool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pools[p.ID] = p
}

// AddMember registers or replaces a member.
func (s *Static) AddMember(m Member) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.members[memberKey{m.Pool, m.Address}] = m
}

func (s *Static) Pool(id mutual.Address) (*Pool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	p, ok := s.pools[id]
	if !ok {
		return nil, reverts.Newf(reverts.ErrUnknownPool, "%v", id)
	}
	return &p, nil
}

func (s *Static) Member(pool, addr mutual.Address) (*Member, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	m, ok := s.members[memberKey{pool, addr}]
	if !ok {
		return nil, reverts.Newf(reverts.ErrNotPoolMember, "%v in pool %v", addr, pool)
	}
	return &m, nil
}
