// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"slices"

	"github.com/golang/snappy"
	"github.com/qianbin/directcache"

	"github.com/vechain/mutual/kv"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/stackedmap"
)

var keyPrefix = []byte("s")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// State is a journaled key/value view over a kv store.
// Changes are held in memory until Commit writes them in one batch.
// Values are snappy compressed at rest and cached uncompressed after load or commit.
type State struct {
	db    kv.Store
	cache *directcache.Cache
	sm    *stackedmap.StackedMap
}

// New create a state object over db with a cache of cacheSizeMB megabytes.
func New(db kv.Store, cacheSizeMB int) *State {
	if cacheSizeMB < 1 {
		cacheSizeMB = 1
	}
	s := &State{
		db:    db,
		cache: directcache.New(cacheSizeMB * 1024 * 1024),
	}
	s.sm = stackedmap.New(s.cacheGetter)
	return s
}

func dbKey(key mutual.Bytes32) []byte {
	return append(slices.Clone(keyPrefix), key[:]...)
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (any, bool, error) {
	k := key.(mutual.Bytes32)

	var value []byte
	if s.cache.AdvGet(k[:], func(val []byte) {
		value = slices.Clone(val)
	}, false) && len(value) > 0 {
		metricCacheHitMiss().AddWithLabel(1, map[string]string{"event": "hit"})
		return value, true, nil
	}
	metricCacheHitMiss().AddWithLabel(1, map[string]string{"event": "miss"})

	enc, err := s.db.Get(dbKey(k))
	if err != nil {
		if s.db.IsNotFound(err) {
			return []byte(nil), true, nil
		}
		return nil, false, err
	}
	if value, err = snappy.Decode(nil, enc); err != nil {
		return nil, false, err
	}
	s.cache.Set(k[:], value)
	return value, true, nil
}

// GetRaw returns the raw value stored for key. Empty value means absent.
func (s *State) GetRaw(key mutual.Bytes32) ([]byte, error) {
	v, _, err := s.sm.Get(key)
	if err != nil {
		return nil, &Error{err}
	}
	return v.([]byte), nil
}

// SetRaw sets the raw value for key. Setting empty value deletes the key.
func (s *State) SetRaw(key mutual.Bytes32, value []byte) {
	s.sm.Put(key, value)
}

// EncodeStorage set value encoded by given enc method.
func (s *State) EncodeStorage(key mutual.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRaw(key, raw)
	return nil
}

// DecodeStorage get and decode value.
func (s *State) DecodeStorage(key mutual.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRaw(key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Commit writes all pending changes into the underlying store atomically.
// Pending changes are kept if the write fails, so the caller may still revert them.
func (s *State) Commit() error {
	changes := make(map[mutual.Bytes32][]byte)
	s.sm.Journal(func(k, v any) bool {
		changes[k.(mutual.Bytes32)] = v.([]byte)
		return true
	})
	if len(changes) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for k, v := range changes {
		var err error
		if len(v) == 0 {
			err = batch.Delete(dbKey(k))
		} else {
			err = batch.Put(dbKey(k), snappy.Encode(nil, v))
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	for k, v := range changes {
		s.cache.Set(k[:], v)
	}
	s.sm = stackedmap.New(s.cacheGetter)
	metricCommittedKeys().Add(int64(len(changes)))
	return nil
}
