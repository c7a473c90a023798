// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb backs kv.Store with goleveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/mutual/kv"
)

var _ kv.StoreCloser = (*LevelDB)(nil)

type Options struct {
	CacheSize              int // MB
	OpenFilesCacheCapacity int
	// SyncWrites flushes each batch to disk before Write returns, so a
	// committed engine operation survives a crash.
	SyncWrites bool
}

var readOpt = opt.ReadOptions{}

type LevelDB struct {
	db        *leveldb.DB
	stg       storage.Storage // not owned by db, released on Close
	batchOpts *opt.WriteOptions
}

// New opens the level db at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "new persistent level db")
	}
	return open(stg, opts)
}

// NewMem creates a level db in memory.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cacheSize := max(opts.CacheSize, 16)
	openFiles := max(opts.OpenFilesCacheCapacity, 16)

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFiles,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{
		db:        db,
		stg:       stg,
		batchOpts: &opt.WriteOptions{Sync: opts.SyncWrites},
	}, nil
}

// IsNotFound tells whether err returned by Get means the key is absent.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, &readOpt)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

// Close closes the db and releases its storage lock. Later operations fail.
func (ldb *LevelDB) Close() error {
	if err := ldb.db.Close(); err != nil {
		ldb.stg.Close()
		return err
	}
	return ldb.stg.Close()
}

func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{ldb: ldb, b: new(leveldb.Batch)}
}

type batch struct {
	ldb *LevelDB
	b   *leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	if err := b.ldb.db.Write(b.b, b.ldb.batchOpts); err != nil {
		metricBatchWrites().AddWithLabel(1, map[string]string{"result": "error"})
		return err
	}
	metricBatchWrites().AddWithLabel(1, map[string]string{"result": "ok"})
	metricBatchKeys().Observe(int64(b.b.Len()))
	return nil
}
