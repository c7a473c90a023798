// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auditdb

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/mutual/engine"
)

// Source publishes engine events.
type Source interface {
	SubscribeEvents(ch chan *engine.Event) event.Subscription
}

// Follow records events of src until ctx is done or the subscription ends.
// Events already buffered are written before returning.
func (db *AuditDB) Follow(ctx context.Context, src Source) error {
	ch := make(chan *engine.Event, 256)
	sub := src.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	write := func(ev *engine.Event) error {
		// drain whatever else is ready so one transaction covers the burst
		batch := []*engine.Event{ev}
	drain:
		for len(batch) < cap(ch) {
			select {
			case next := <-ch:
				batch = append(batch, next)
			default:
				break drain
			}
		}
		err := db.Write(context.Background(), batch...)
		if errors.Is(err, ErrOutOfRange) {
			return db.writeEach(batch)
		}
		if err != nil {
			logger.Error("failed to write audit events", "count", len(batch), "err", err)
			return err
		}
		metricWritten().Add(int64(len(batch)))
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-ch:
					if err := write(ev); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		case err := <-sub.Err():
			return err
		case ev := <-ch:
			if err := write(ev); err != nil {
				return err
			}
		}
	}
}

// writeEach writes events one by one, skipping those that can not be recorded.
func (db *AuditDB) writeEach(events []*engine.Event) error {
	for _, ev := range events {
		err := db.Write(context.Background(), ev)
		if errors.Is(err, ErrOutOfRange) {
			logger.Warn("audit event skipped", "kind", ev.Kind, "pool", ev.Pool, "claim", ev.Claim, "err", err)
			metricSkipped().Add(1)
			continue
		}
		if err != nil {
			logger.Error("failed to write audit event", "kind", ev.Kind, "err", err)
			return err
		}
		metricWritten().Add(1)
	}
	return nil
}
