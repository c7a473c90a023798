// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/distribution"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/randomness"
	"github.com/vechain/mutual/reputation"
	"github.com/vechain/mutual/reverts"
)

func (e *Engine) Claim(id mutual.Bytes32) (*claim.Claim, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.claims.Get(id)
}

// Validator returns the record of validator in pool.
func (e *Engine) Validator(pool, validator mutual.Address) (*reputation.Record, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	rec, err := e.records.Get(pool, validator)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, reverts.Newf(reverts.ErrUnknownValidator, "%v in pool %v", validator, pool)
	}
	return rec, nil
}

// Registry returns the validators of pool in registration order.
func (e *Engine) Registry(pool mutual.Address) ([]mutual.Address, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.registry.Slots(pool)
}

func (e *Engine) Queue(pool mutual.Address) ([]distribution.Entry, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.queue.Queue(pool)
}

// Round returns round number of pool, nil if not opened yet.
func (e *Engine) Round(pool mutual.Address, number uint64) (*distribution.Round, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.queue.Round(pool, number)
}

// CurrentRound returns the round of pool awaiting randomness, nil if none.
func (e *Engine) CurrentRound(pool mutual.Address) (*distribution.Round, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.queue.CurrentRound(pool)
}

func (e *Engine) DistributionSummary(pool mutual.Address) (*distribution.Summary, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.queue.Summary(pool)
}

func (e *Engine) Request(id mutual.Bytes32) (*randomness.Request, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.broker.Get(id)
}

// PendingRequests returns the randomness requests waiting for delivery.
func (e *Engine) PendingRequests() ([]*randomness.Request, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.broker.Pending()
}
