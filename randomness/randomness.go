// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package randomness tracks two phase requests to an external randomness oracle.
package randomness

import (
	"github.com/pkg/errors"

	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/state"
)

var logger = log.WithContext("pkg", "randomness")

// Purpose tells which transition consumes the randomness.
type Purpose uint8

const (
	AssignValidators Purpose = iota + 1
	SelectForDistribution
)

func (p Purpose) String() string {
	switch p {
	case AssignValidators:
		return "assign-validators"
	case SelectForDistribution:
		return "select-for-distribution"
	default:
		return "unknown"
	}
}

// Oracle is an external source of randomness. Request must return without waiting
// for the result, which is delivered later, exactly once, by calling back Fulfill
// of the requesting engine.
type Oracle interface {
	Request(purpose Purpose, alpha []byte) (mutual.Bytes32, error)
}

// Request is a randomness request issued on behalf of a consumer.
type Request struct {
	ID          mutual.Bytes32
	Purpose     Purpose
	Pool        mutual.Address
	Consumer    mutual.Bytes32 // claim id or distribution round key
	Alpha       []byte
	Fulfilled   bool
	Result      mutual.Bytes32
	RequestedAt uint64
	FulfilledAt uint64
	Replaced    mutual.Bytes32 // id of the request reissued in place of this one
}

// Waiting tells whether the request still expects a delivery.
func (r *Request) Waiting() bool {
	return !r.Fulfilled && r.Replaced.IsZero()
}

var pendingKey = mutual.Blake2b([]byte("pending"))

// Broker records requests and guards fulfillment.
type Broker struct {
	oracle   Oracle
	requests *state.Mapping[mutual.Bytes32, Request]
	pending  *state.Mapping[mutual.Bytes32, []mutual.Bytes32]
}

func NewBroker(st *state.State, oracle Oracle) *Broker {
	return &Broker{
		oracle:   oracle,
		requests: state.NewMapping[mutual.Bytes32, Request](st, "randomness-requests"),
		pending:  state.NewMapping[mutual.Bytes32, []mutual.Bytes32](st, "randomness-pending"),
	}
}

func (b *Broker) pendingIDs() ([]mutual.Bytes32, error) {
	ids, _, err := b.pending.Get(pendingKey)
	if err != nil {
		return nil, errors.Wrap(err, "get pending requests")
	}
	return ids, nil
}

func (b *Broker) setPending(ids []mutual.Bytes32) error {
	if len(ids) == 0 {
		b.pending.Delete(pendingKey)
		return nil
	}
	return errors.Wrap(b.pending.Set(pendingKey, ids), "set pending requests")
}

func (b *Broker) dropPending(id mutual.Bytes32) error {
	ids, err := b.pendingIDs()
	if err != nil {
		return err
	}
	for i, pending := range ids {
		if pending == id {
			return b.setPending(append(ids[:i:i], ids[i+1:]...))
		}
	}
	return nil
}

// Pending returns the requests waiting for delivery, oldest first.
func (b *Broker) Pending() ([]*Request, error) {
	ids, err := b.pendingIDs()
	if err != nil {
		return nil, err
	}
	reqs := make([]*Request, 0, len(ids))
	for _, id := range ids {
		req, err := b.Get(id)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Request asks the oracle for randomness and records the pending request.
func (b *Broker) Request(purpose Purpose, pool mutual.Address, consumer mutual.Bytes32, alpha []byte, now uint64) (*Request, error) {
	id, err := b.oracle.Request(purpose, alpha)
	if err != nil {
		return nil, errors.Wrap(err, "request randomness")
	}
	if _, exist, err := b.requests.Get(id); err != nil {
		return nil, errors.Wrap(err, "get request")
	} else if exist {
		return nil, errors.Errorf("oracle returned duplicate request id %v", id)
	}

	req := &Request{
		ID:          id,
		Purpose:     purpose,
		Pool:        pool,
		Consumer:    consumer,
		Alpha:       alpha,
		RequestedAt: now,
	}
	if err := b.requests.Set(id, *req); err != nil {
		return nil, errors.Wrap(err, "set request")
	}
	ids, err := b.pendingIDs()
	if err != nil {
		return nil, err
	}
	if err := b.setPending(append(ids, id)); err != nil {
		return nil, err
	}
	logger.Debug("randomness requested", "id", id, "purpose", purpose, "consumer", consumer)
	return req, nil
}

// Get returns the request by id.
func (b *Broker) Get(id mutual.Bytes32) (*Request, error) {
	req, exist, err := b.requests.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "get request")
	}
	if !exist {
		return nil, reverts.Newf(reverts.ErrUnknownRequest, "%v", id)
	}
	return &req, nil
}

// Fulfill marks the request fulfilled with result. A request is fulfilled at most once.
func (b *Broker) Fulfill(id, result mutual.Bytes32, now uint64) (*Request, error) {
	req, err := b.Get(id)
	if err != nil {
		return nil, err
	}
	if req.Fulfilled {
		return nil, reverts.Newf(reverts.ErrRandomnessAlreadyFulfilled, "%v", id)
	}
	if !req.Replaced.IsZero() {
		return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "request %v replaced by %v", id, req.Replaced)
	}
	req.Fulfilled = true
	req.Result = result
	req.FulfilledAt = now
	if err := b.requests.Set(id, *req); err != nil {
		return nil, errors.Wrap(err, "set request")
	}
	if err := b.dropPending(id); err != nil {
		return nil, err
	}
	return req, nil
}

// Reissue asks the oracle again on behalf of the consumer of request id, whose
// delivery was lost or rejected. The old request can no longer be fulfilled.
func (b *Broker) Reissue(id mutual.Bytes32, now uint64) (*Request, error) {
	old, err := b.Get(id)
	if err != nil {
		return nil, err
	}
	if old.Fulfilled {
		return nil, reverts.Newf(reverts.ErrRandomnessAlreadyFulfilled, "%v", id)
	}
	if !old.Replaced.IsZero() {
		return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "request %v replaced by %v", id, old.Replaced)
	}
	req, err := b.Request(old.Purpose, old.Pool, old.Consumer, old.Alpha, now)
	if err != nil {
		return nil, err
	}
	old.Replaced = req.ID
	if err := b.requests.Set(id, *old); err != nil {
		return nil, errors.Wrap(err, "set request")
	}
	if err := b.dropPending(id); err != nil {
		return nil, err
	}
	logger.Debug("randomness reissued", "id", id, "new", req.ID, "purpose", req.Purpose)
	return req, nil
}
