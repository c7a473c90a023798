// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/config"
	"github.com/vechain/mutual/distribution"
	"github.com/vechain/mutual/engine"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/reverts"
)

const (
	defaultReplayTimeout = 30 * time.Second
	pollInterval         = 20 * time.Millisecond
)

// stepClock drives the engine clock while a scenario is replayed and falls
// back to wall time otherwise.
type stepClock struct {
	at atomic.Uint64
}

func (c *stepClock) Now() uint64 {
	if at := c.at.Load(); at != 0 {
		return at
	}
	return uint64(time.Now().Unix())
}

// Set moves the clock to at, zero keeps the current time.
func (c *stepClock) Set(at uint64) {
	if at != 0 {
		c.at.Store(at)
	}
}

type replayReport struct {
	Applied   int
	Reverted  int
	Claims    []*claim.Claim
	Summaries map[mutual.Address]*distribution.Summary
}

// replayer applies scenario steps in order. Steps needing randomness wait for
// the oracle to fulfill the request before the next step runs.
type replayer struct {
	engine  *engine.Engine
	clock   *stepClock
	timeout time.Duration
	quiet   bool
	claims  []mutual.Bytes32 // by submit index, zero when the submit reverted
}

func newReplayer(eng *engine.Engine, clock *stepClock, timeout time.Duration) *replayer {
	if timeout <= 0 {
		timeout = defaultReplayTimeout
	}
	return &replayer{
		engine:  eng,
		clock:   clock,
		timeout: timeout,
	}
}

func (r *replayer) Run(ctx context.Context, steps []config.Step) (*replayReport, error) {
	report := &replayReport{}

	bar := pb.New64(int64(len(steps))).SetMaxWidth(90)
	bar.NotPrint = r.quiet
	bar.Start()
	defer func() { bar.NotPrint = true }()

	for i := range steps {
		step := &steps[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.clock.Set(step.At)

		err := r.apply(ctx, step)
		switch {
		case err == nil:
			report.Applied++
		case reverts.IsRevertErr(err):
			report.Reverted++
			logger.Info("scenario step reverted", "index", i, "op", step.Op, "err", err)
		default:
			return nil, errors.Wrapf(err, "scenario[%d] %v", i, step.Op)
		}
		bar.Add64(1)
	}
	bar.Finish()

	if err := r.collect(steps, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *replayer) apply(ctx context.Context, step *config.Step) error {
	switch step.Op {
	case config.OpStake:
		pool, account, err := parseStepAccounts(step)
		if err != nil {
			return err
		}
		_, err = r.engine.Stake(pool, account, step.Amount)
		return err
	case config.OpSubmit:
		pool, account, err := parseStepAccounts(step)
		if err != nil {
			return err
		}
		incident, ok := claim.ParseIncidentType(step.Incident)
		if !ok {
			return errors.Errorf("unknown incident %q", step.Incident)
		}
		c, err := r.engine.SubmitClaim(&claim.Submission{
			Pool:         pool,
			Claimant:     account,
			IncidentType: incident,
			Amount:       step.Amount,
			IncidentAt:   step.IncidentAt,
			Evidence:     step.Evidence,
		})
		if err != nil {
			r.claims = append(r.claims, mutual.Bytes32{})
			return err
		}
		r.claims = append(r.claims, c.ID)
		return r.await(ctx, c.AssignmentRequest)
	case config.OpVote:
		account, err := mutual.ParseAddress(step.Account)
		if err != nil {
			return err
		}
		if step.Claim >= len(r.claims) {
			return errors.Errorf("claim %d not submitted yet", step.Claim)
		}
		decision := claim.Approve
		if step.Decision == "reject" {
			decision = claim.Reject
		}
		_, err = r.engine.ValidateClaim(r.claims[step.Claim], account, decision, step.Justification)
		return err
	case config.OpDistribute:
		pool, err := mutual.ParseAddress(step.Pool)
		if err != nil {
			return err
		}
		round, err := r.engine.DistributeClaims(pool)
		if err != nil {
			return err
		}
		if round.Status == distribution.AwaitingRandomness {
			return r.await(ctx, round.Request)
		}
		return nil
	default:
		return errors.Errorf("unknown op %q", step.Op)
	}
}

func parseStepAccounts(step *config.Step) (pool, account mutual.Address, err error) {
	if pool, err = mutual.ParseAddress(step.Pool); err != nil {
		return
	}
	account, err = mutual.ParseAddress(step.Account)
	return
}

// await polls until the randomness request is fulfilled.
func (r *replayer) await(ctx context.Context, id mutual.Bytes32) error {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		req, err := r.engine.Request(id)
		if err != nil {
			return err
		}
		if req.Fulfilled {
			return nil
		}
		if !req.Replaced.IsZero() {
			id = req.Replaced
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return errors.Errorf("randomness request %v not fulfilled after %v", id.AbbrevString(), r.timeout)
		case <-ticker.C:
		}
	}
}

func (r *replayer) collect(steps []config.Step, report *replayReport) error {
	for _, id := range r.claims {
		if id.IsZero() {
			continue
		}
		c, err := r.engine.Claim(id)
		if err != nil {
			return err
		}
		report.Claims = append(report.Claims, c)
	}

	report.Summaries = make(map[mutual.Address]*distribution.Summary)
	for _, step := range steps {
		if step.Op != config.OpDistribute {
			continue
		}
		pool, err := mutual.ParseAddress(step.Pool)
		if err != nil {
			return err
		}
		if _, ok := report.Summaries[pool]; ok {
			continue
		}
		summary, err := r.engine.DistributionSummary(pool)
		if err != nil {
			return err
		}
		report.Summaries[pool] = summary
	}
	return nil
}
