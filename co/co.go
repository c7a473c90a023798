// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds small goroutine helpers shared by the background workers.
package co

import (
	"sync"
)

// Goes tracks goroutines so their owner can wait for them on shutdown.
type Goes struct {
	wg sync.WaitGroup
}

func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

// Wait blocks until every goroutine started by Go has returned.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done is closed once every goroutine started by Go has returned.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}

// Wakeup wakes a single consumer. Notifications made while the consumer is
// busy collapse into one, so the consumer must drain its work after each wakeup.
// The zero value is ready to use.
type Wakeup struct {
	once sync.Once
	ch   chan struct{}
}

func (w *Wakeup) channel() chan struct{} {
	w.once.Do(func() { w.ch = make(chan struct{}, 1) })
	return w.ch
}

// Notify marks a wakeup pending without blocking.
func (w *Wakeup) Notify() {
	select {
	case w.channel() <- struct{}{}:
	default:
	}
}

// C receives once for each pending wakeup.
func (w *Wakeup) C() <-chan struct{} {
	return w.channel()
}
