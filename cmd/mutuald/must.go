// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/mutual/auditdb"
	"github.com/vechain/mutual/config"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/lvldb"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/settlement"
)

const (
	maxClockOffset        = 5 * time.Second
	defaultResumeInterval = time.Minute
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.NewJSONHandler(os.Stdout, level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandler(os.Stderr, level, useColor)
	}
	log.SetDefault(handler)
	return level
}

func loadConfig(ctx *cli.Context) *config.Config {
	path := ctx.String(configFlag.Name)
	if path == "" {
		fatal("missing --" + configFlag.Name)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load config [%v]: %v", path, err))
	}
	return cfg
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.vechain.mutual")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.mutual")
		}
		return filepath.Join(home, ".org.vechain.mutual")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// resolveDataDir prefers the flag when given, then the config, then the default.
func resolveDataDir(ctx *cli.Context, cfg *config.Config) string {
	if !ctx.IsSet(dataDirFlag.Name) && cfg != nil && cfg.DataDir != "" {
		return cfg.DataDir
	}
	return ctx.String(dataDirFlag.Name)
}

func makeDataDir(ctx *cli.Context, cfg *config.Config) string {
	dataDir := resolveDataDir(ctx, cfg)
	if dataDir == "" {
		fatal("unable to infer default data dir, use -data-dir to specify")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func cacheSize(ctx *cli.Context, cfg *config.Config) int {
	if !ctx.IsSet(cacheFlag.Name) && cfg.CacheSizeMB > 0 {
		return normalizeCacheSize(cfg.CacheSizeMB)
	}
	return normalizeCacheSize(ctx.Int(cacheFlag.Name))
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 32 {
		sizeMB = 32
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/4 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 4)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		fatal("failed to get fd limit:", err)
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

func openStateDB(ctx *cli.Context, dataDir string, cacheMB int) *lvldb.LevelDB {
	if ctx.Bool(inMemoryFlag.Name) {
		db, err := lvldb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open state database in memory: %v", err))
		}
		return db
	}

	dir := filepath.Join(dataDir, "state.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: suggestFDCache(),
		SyncWrites:             true,
	})
	if err != nil {
		fatal(fmt.Sprintf("open state database [%v]: %v", dir, err))
	}
	return db
}

func openAuditDB(ctx *cli.Context, dataDir string) *auditdb.AuditDB {
	if ctx.Bool(inMemoryFlag.Name) {
		db, err := auditdb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open audit database in memory: %v", err))
		}
		return db
	}

	path := filepath.Join(dataDir, "audit.db")
	db, err := auditdb.New(path)
	if err != nil {
		fatal(fmt.Sprintf("open audit database [%v]: %v", path, err))
	}
	return db
}

// openLedger keeps balances next to the state, so both survive a restart together.
func openLedger(ctx *cli.Context, dataDir string, opening map[mutual.Address]uint64) (settlement.Ledger, func()) {
	if ctx.Bool(inMemoryFlag.Name) {
		return settlement.NewMemLedger(opening), func() {}
	}

	dir := filepath.Join(dataDir, "ledger.db")
	db, err := lvldb.New(dir, lvldb.Options{
		OpenFilesCacheCapacity: 64,
		SyncWrites:             true,
	})
	if err != nil {
		fatal(fmt.Sprintf("open ledger database [%v]: %v", dir, err))
	}
	ledger, err := settlement.NewStoredLedger(db, opening)
	if err != nil {
		db.Close()
		fatal(fmt.Sprintf("open ledger [%v]: %v", dir, err))
	}
	return ledger, func() { db.Close() }
}

func loadOrGeneratePrivateKey(path string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.LoadECDSA(path)
	if err == nil {
		return key, nil
	}

	if !os.IsNotExist(err) {
		return nil, err
	}

	key, err = crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := crypto.SaveECDSA(path, key); err != nil {
		return nil, err
	}
	return key, nil
}

func loadVRFKey(ctx *cli.Context, dataDir string) *ecdsa.PrivateKey {
	path := ctx.String(vrfKeyFlag.Name)
	if path == "" {
		if ctx.Bool(inMemoryFlag.Name) {
			key, err := crypto.GenerateKey()
			if err != nil {
				fatal(fmt.Sprintf("generate vrf key: %v", err))
			}
			return key
		}
		path = filepath.Join(dataDir, "vrf.key")
	}
	key, err := loadOrGeneratePrivateKey(path)
	if err != nil {
		fatal(fmt.Sprintf("load or generate vrf key [%v]: %v", path, err))
	}
	return key
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > maxClockOffset || resp.ClockOffset < -maxClockOffset {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
