// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/mutual/config"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/mutual"
)

func newContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func TestInitLogger(t *testing.T) {
	flags := []cli.Flag{verbosityFlag, jsonLogsFlag}
	defer func() {
		var quiet slog.LevelVar
		quiet.Set(log.LevelCrit)
		log.SetDefault(log.NewJSONHandler(&bytes.Buffer{}, &quiet))
	}()

	var level *slog.LevelVar
	require.NotPanics(t, func() {
		level = initLogger(newContext(t, flags, "--verbosity", "2"))
		level = initLogger(newContext(t, flags, "--json-logs"))
	})
	assert.Equal(t, log.LevelInfo, level.Level())

	root := log.Root()
	assert.False(t, root.Enabled(context.Background(), log.LevelDebug))
	level.Set(log.LevelDebug)
	assert.True(t, root.Enabled(context.Background(), log.LevelDebug))
}

func TestLoadOrGeneratePrivateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vrf.key")

	generated, err := loadOrGeneratePrivateKey(path)
	require.NoError(t, err)

	loaded, err := loadOrGeneratePrivateKey(path)
	require.NoError(t, err)
	assert.Equal(t, crypto.FromECDSA(generated), crypto.FromECDSA(loaded))

	_, err = loadOrGeneratePrivateKey(filepath.Join(t.TempDir(), "missing", "vrf.key"))
	assert.Error(t, err)
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.Equal(t, 32, normalizeCacheSize(1))
	assert.LessOrEqual(t, normalizeCacheSize(1<<40), 1<<40)
}

func TestResolveDataDir(t *testing.T) {
	flags := []cli.Flag{dataDirFlag}
	cfg := &config.Config{DataDir: "/from/config"}

	assert.Equal(t, "/from/config", resolveDataDir(newContext(t, flags), cfg))
	assert.Equal(t, "/from/flag", resolveDataDir(newContext(t, flags, "--data-dir", "/from/flag"), cfg))
	assert.Equal(t, defaultDataDir(), resolveDataDir(newContext(t, flags), &config.Config{}))
}

func TestCacheSizeFromConfig(t *testing.T) {
	flags := []cli.Flag{cacheFlag}

	assert.Equal(t, 64, cacheSize(newContext(t, flags), &config.Config{CacheSizeMB: 64}))
	assert.Equal(t, 48, cacheSize(newContext(t, flags, "--cache", "48"), &config.Config{CacheSizeMB: 64}))
}

func TestOpenLedger(t *testing.T) {
	dataDir := t.TempDir()
	fund := mutual.BytesToAddress([]byte("fund"))
	payee := mutual.BytesToAddress([]byte("payee"))
	opening := map[mutual.Address]uint64{fund: 100}
	onDisk := newContext(t, []cli.Flag{inMemoryFlag})

	ledger, closeLedger := openLedger(onDisk, dataDir, opening)
	require.NoError(t, ledger.Transfer(fund, payee, 60))
	closeLedger()

	ledger, closeLedger = openLedger(onDisk, dataDir, opening)
	defer closeLedger()
	balance, err := ledger.Balance(fund)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), balance, "restart keeps balances")

	inMemory, closeMem := openLedger(newContext(t, []cli.Flag{inMemoryFlag}, "--in-memory"), "", opening)
	defer closeMem()
	balance, err = inMemory.Balance(fund)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}
