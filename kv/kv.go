// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store engine state is persisted in.
package kv

// Getter reads single keys.
type Getter interface {
	// Get returns the value of key, or an error satisfying IsNotFound when absent.
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(error) bool
}

// Putter writes single keys.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch collects writes applied together by Write, or not at all.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Store is what state needs from a backend: point reads and atomic batches.
type Store interface {
	Getter
	Putter

	NewBatch() Batch
}

type StoreCloser interface {
	Store
	Close() error
}
