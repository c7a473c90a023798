// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/mutual/admin"
	"github.com/vechain/mutual/co"
	"github.com/vechain/mutual/engine"
	"github.com/vechain/mutual/health"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/membership"
	"github.com/vechain/mutual/metrics"
	"github.com/vechain/mutual/state"
	"github.com/vechain/mutual/vrf"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "mutuald")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "mutuald",
		Usage:     "Claim adjudication and payout engine for mutual risk pools",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			inMemoryFlag,
			cacheFlag,
			verbosityFlag,
			jsonLogsFlag,
			vrfKeyFlag,
			enableAdminFlag,
			adminAddrFlag,
			enableMetricsFlag,
			skipClockCheckFlag,
			exitAfterReplayFlag,
			dumpFlag,
			replayTimeoutFlag,
			resumeIntervalFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "audit",
				Usage: "Print events recorded in the audit trail",
				Flags: []cli.Flag{
					dataDirFlag,
					poolFlag,
					claimFlag,
					accountFlag,
					kindFlag,
					fromFlag,
					toFlag,
					offsetFlag,
					limitFlag,
					descFlag,
				},
				Action: auditAction,
			},
			{
				Name:  "keygen",
				Usage: "Generate a VRF key for the randomness oracle",
				Flags: []cli.Flag{
					outFlag,
				},
				Action: keygenAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	cfg := loadConfig(ctx)

	var dataDir string
	if !ctx.Bool(inMemoryFlag.Name) {
		dataDir = makeDataDir(ctx, cfg)
	}
	cacheMB := cacheSize(ctx, cfg)

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	var goes co.Goes
	defer goes.Wait()
	if !ctx.Bool(skipClockCheckFlag.Name) {
		goes.Go(checkClockOffset)
	}

	static, err := cfg.Members()
	if err != nil {
		return err
	}
	members, err := membership.NewCached(static, len(cfg.Pools))
	if err != nil {
		return err
	}
	balances, err := cfg.OpeningBalances()
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	clock := &stepClock{}
	opts.Clock = clock.Now

	stateDB := openStateDB(ctx, dataDir, cacheMB)
	defer func() { logger.Info("closing state database..."); stateDB.Close() }()

	auditDB := openAuditDB(ctx, dataDir)
	defer func() { logger.Info("closing audit database..."); auditDB.Close() }()

	oracle := vrf.New(loadVRFKey(ctx, dataDir))
	ledger, closeLedger := openLedger(ctx, dataDir, balances)
	defer func() { logger.Info("closing ledger..."); closeLedger() }()

	eng := engine.New(state.New(stateDB, cacheMB/2), ledger, members, oracle, opts)
	defer func() { logger.Info("closing engine..."); eng.Close() }()

	runCtx, cancel := context.WithCancel(exitSignal)
	defer cancel()

	h := health.New()
	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		h.AuditStatus(true)
		defer h.AuditStatus(false)
		return auditDB.Follow(groupCtx, eng)
	})
	group.Go(func() error {
		return h.Watch(groupCtx, eng)
	})

	oracle.Start(eng.Fulfill)
	h.OracleStatus(true)
	defer func() {
		logger.Info("stopping oracle...")
		oracle.Stop()
		h.OracleStatus(false)
	}()

	// the oracle queue does not survive restarts
	if n, err := eng.ResumePending(0); err != nil {
		return errors.Wrap(err, "resume pending randomness")
	} else if n > 0 {
		logger.Info("reissued pending randomness requests", "count", n)
	}
	group.Go(func() error {
		return resumeLoop(groupCtx, eng, ctx.Duration(resumeIntervalFlag.Name))
	})

	if ctx.Bool(enableAdminFlag.Name) {
		url, stop, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, h, enableMetrics)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); stop() }()
		logger.Info("admin server started", "url", url)
	}

	logger.Info("engine started",
		"pools", len(cfg.Pools),
		"dataDir", dataDir,
		"auditSession", auditDB.Session(),
		"slashSink", opts.SlashSink,
	)

	if len(cfg.Scenario) > 0 {
		r := newReplayer(eng, clock, ctx.Duration(replayTimeoutFlag.Name))
		report, err := r.Run(groupCtx, cfg.Scenario)
		if err != nil {
			cancel()
			if groupErr := group.Wait(); groupErr != nil {
				return groupErr
			}
			return errors.Wrap(err, "replay scenario")
		}
		hit, miss := members.Stats()
		logger.Info("scenario replayed", "applied", report.Applied, "reverted", report.Reverted, "claims", len(report.Claims),
			"pool-cache-hit", hit, "pool-cache-miss", miss)
		if ctx.Bool(dumpFlag.Name) {
			spew.Fdump(os.Stdout, report)
		}
		if ctx.Bool(exitAfterReplayFlag.Name) {
			cancel()
		}
	}

	<-groupCtx.Done()
	return group.Wait()
}

// resumeLoop reissues randomness requests whose delivery was rejected or lost.
func resumeLoop(ctx context.Context, eng *engine.Engine, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	minAge := max(uint64(interval/time.Second), 1)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := eng.ResumePending(minAge)
			if err != nil {
				return errors.Wrap(err, "resume pending randomness")
			}
			if n > 0 {
				logger.Info("reissued pending randomness requests", "count", n)
			}
		}
	}
}
