// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package membership

import (
	"github.com/vechain/mutual/cache"
	"github.com/vechain/mutual/mutual"
)

// Cached memoizes pool parameters of a slower Service.
// Member lookups always reach the backing service since coverage changes often.
type Cached struct {
	Service
	pools *cache.LRU
}

// NewCached wraps svc with an LRU of size pool entries.
func NewCached(svc Service, size int) (*Cached, error) {
	pools, err := cache.NewLRU(size)
	if err != nil {
		return nil, err
	}
	return &Cached{Service: svc, pools: pools}, nil
}

func (c *Cached) Pool(id mutual.Address) (*Pool, error) {
	v, err := c.pools.GetOrLoad(id, func(key any) (any, error) {
		return c.Service.Pool(key.(mutual.Address))
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*Pool)
	return &p, nil
}

// Purge drops all cached pools.
func (c *Cached) Purge() {
	c.pools.Purge()
}

// Stats returns hit and miss counts of pool lookups.
func (c *Cached) Stats() (hit, miss int64) {
	return c.pools.Stats()
}
