// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	persistent, err := New(filepath.Join(t.TempDir(), "main.db"), Options{CacheSize: 16, OpenFilesCacheCapacity: 16})
	require.NoError(t, err)
	defer persistent.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	var (
		key     = []byte("123")
		value   = []byte("456")
		invalid = []byte("abc")
	)

	for _, db := range []*LevelDB{persistent, mem} {
		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		require.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(invalid)
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestBatch(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "state.db"), Options{SyncWrites: true})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("stale"), []byte("v")))

	batch := db.NewBatch()
	for _, k := range []string{"a1", "a2", "a3"} {
		require.NoError(t, batch.Put([]byte(k), []byte("v"+k)))
	}
	require.NoError(t, batch.Delete([]byte("stale")))
	assert.Equal(t, 4, batch.Len())

	_, err = db.Get([]byte("a1"))
	assert.True(t, db.IsNotFound(err), "batch not written yet")
	require.NoError(t, batch.Write())

	for _, k := range []string{"a1", "a2", "a3"} {
		got, err := db.Get([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, "v"+k, string(got))
	}
	has, err := db.Has([]byte("stale"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := New(path, Options{})
	require.NoError(t, err)
	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))
	require.NoError(t, batch.Write())
	require.NoError(t, db.Close())

	_, err = db.Get([]byte("k"))
	assert.Error(t, err, "closed")

	db, err = New(path, Options{})
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestLockReleasedOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	for i := 0; i < 3; i++ {
		db, err := New(path, Options{})
		require.NoError(t, err)
		require.NoError(t, db.Put([]byte("k"), []byte("v")))
		require.NoError(t, db.Close())
	}

	db, err := New(path, Options{})
	require.NoError(t, err)
	_, err = New(path, Options{})
	assert.Error(t, err, "locked while open")
	require.NoError(t, db.Close())
}
