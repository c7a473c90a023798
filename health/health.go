// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/mutual/engine"
)

type LastEvent struct {
	Kind      string     `json:"kind"`
	Claim     string     `json:"claim,omitempty"`
	Timestamp *time.Time `json:"timestamp"`
}

type Status struct {
	Healthy        bool       `json:"healthy"`
	LastEvent      *LastEvent `json:"lastEvent"`
	Events         uint64     `json:"events"`
	AuditFollowing bool       `json:"auditFollowing"`
	OracleRunning  bool       `json:"oracleRunning"`
}

// Source publishes engine events.
type Source interface {
	SubscribeEvents(ch chan *engine.Event) event.Subscription
}

type Health struct {
	lock           sync.RWMutex
	lastEvent      time.Time
	lastKind       engine.EventKind
	lastClaim      string
	events         uint64
	auditFollowing bool
	oracleRunning  bool
}

func New() *Health {
	return &Health{}
}

// Observe records ev as the most recent engine activity.
func (h *Health) Observe(ev *engine.Event) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastEvent = time.Now()
	h.lastKind = ev.Kind
	h.lastClaim = ""
	if !ev.Claim.IsZero() {
		h.lastClaim = ev.Claim.String()
	}
	h.events++
}

func (h *Health) AuditStatus(following bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.auditFollowing = following
}

func (h *Health) OracleStatus(running bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.oracleRunning = running
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	var last *LastEvent
	if h.events > 0 {
		ts := h.lastEvent
		last = &LastEvent{
			Kind:      h.lastKind.String(),
			Claim:     h.lastClaim,
			Timestamp: &ts,
		}
	}

	return &Status{
		Healthy:        h.auditFollowing && h.oracleRunning,
		LastEvent:      last,
		Events:         h.events,
		AuditFollowing: h.auditFollowing,
		OracleRunning:  h.oracleRunning,
	}, nil
}

// Watch observes events of src until ctx is done or the subscription ends.
func (h *Health) Watch(ctx context.Context, src Source) error {
	ch := make(chan *engine.Event, 64)
	sub := src.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case ev := <-ch:
			h.Observe(ev)
		}
	}
}
