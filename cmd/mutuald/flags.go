// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/mutual/log"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the yaml file describing pools, balances and scenario",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for state and audit databases, overrides data_dir of the config",
	}
	inMemoryFlag = cli.BoolFlag{
		Name:  "in-memory",
		Usage: "keep state and audit trail in memory",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 256,
		Usage: "megabytes of ram allocated to state cache, overrides cache_size_mb of the config",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	vrfKeyFlag = cli.StringFlag{
		Name:  "vrf-key",
		Usage: "path of the oracle VRF key, generated under data dir if not set",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables prometheus metrics served by the admin server on /metrics",
	}
	skipClockCheckFlag = cli.BoolFlag{
		Name:  "skip-clock-check",
		Usage: "skip the NTP clock offset check on startup",
	}
	exitAfterReplayFlag = cli.BoolFlag{
		Name:  "exit-after-replay",
		Usage: "exit once the scenario of the config is replayed",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "dump claims and distribution summaries after the scenario",
	}
	replayTimeoutFlag = cli.DurationFlag{
		Name:  "replay-timeout",
		Value: defaultReplayTimeout,
		Usage: "maximum wait for the oracle to fulfill a scenario request",
	}
	resumeIntervalFlag = cli.DurationFlag{
		Name:  "resume-interval",
		Value: defaultResumeInterval,
		Usage: "reissue randomness requests left undelivered for this long",
	}

	// audit command
	poolFlag = cli.StringFlag{
		Name:  "pool",
		Usage: "only events of this pool",
	}
	claimFlag = cli.StringFlag{
		Name:  "claim",
		Usage: "only events of this claim",
	}
	accountFlag = cli.StringFlag{
		Name:  "account",
		Usage: "only events of this validator or claimant",
	}
	kindFlag = cli.StringSliceFlag{
		Name:  "kind",
		Usage: "only events of this kind, may be repeated",
	}
	fromFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "earliest event timestamp",
	}
	toFlag = cli.Uint64Flag{
		Name:  "to",
		Usage: "latest event timestamp",
	}
	offsetFlag = cli.Uint64Flag{
		Name:  "offset",
		Usage: "number of matching events to skip",
	}
	limitFlag = cli.Uint64Flag{
		Name:  "limit",
		Value: 100,
		Usage: "maximum number of events to print",
	}
	descFlag = cli.BoolFlag{
		Name:  "desc",
		Usage: "newest events first",
	}

	// keygen command
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "file to write the generated key to",
	}
)
