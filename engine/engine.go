// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package engine runs the adjudication and distribution protocol of the pools.
// Every operation is applied atomically: state changes and ledger calls either
// all take effect or none does.
package engine

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/distribution"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/membership"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/randomness"
	"github.com/vechain/mutual/registry"
	"github.com/vechain/mutual/reputation"
	"github.com/vechain/mutual/reverts"
	"github.com/vechain/mutual/settlement"
	"github.com/vechain/mutual/state"
	"github.com/vechain/mutual/voting"
)

var logger = log.WithContext("pkg", "engine")

// SlashSink decides where slashed stake goes.
type SlashSink uint8

const (
	SinkFund SlashSink = iota // moved from custody into the pool fund
	SinkBurn                  // withdrawn from custody
)

func (s SlashSink) String() string {
	if s == SinkBurn {
		return "burn"
	}
	return "fund"
}

// ParseSlashSink parses "fund" or "burn", empty means fund.
func ParseSlashSink(s string) (SlashSink, error) {
	switch s {
	case "", "fund":
		return SinkFund, nil
	case "burn":
		return SinkBurn, nil
	default:
		return 0, errors.Errorf("unknown slash sink %q", s)
	}
}

type Options struct {
	RegistryCapacity int
	SlashSink        SlashSink
	Clock            func() uint64 // unix seconds, defaults to the system clock
}

// Engine serializes all operations behind one lock.
type Engine struct {
	lock     sync.Mutex
	sendLock sync.Mutex

	st       *state.State
	ledger   settlement.Ledger
	members  membership.Service
	records  *reputation.Service
	registry *registry.Registry
	claims   *claim.Service
	votes    *voting.Service
	queue    *distribution.Service
	broker   *randomness.Broker
	options  Options

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates an engine. The oracle must deliver results asynchronously,
// calling Fulfill from outside of Request.
func New(st *state.State, ledger settlement.Ledger, members membership.Service, oracle randomness.Oracle, options Options) *Engine {
	if options.Clock == nil {
		options.Clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	records := reputation.New(st)
	claims := claim.New(st)
	return &Engine{
		st:       st,
		ledger:   ledger,
		members:  members,
		records:  records,
		registry: registry.New(st, records, options.RegistryCapacity),
		claims:   claims,
		votes:    voting.New(claims, records),
		queue:    distribution.New(st, claims),
		broker:   randomness.NewBroker(st, oracle),
		options:  options,
	}
}

// SubscribeEvents delivers events of committed operations to ch in commit order.
// Receivers must keep draining ch, the sending operation waits for them.
func (e *Engine) SubscribeEvents(ch chan *Event) event.Subscription {
	return e.scope.Track(e.feed.Subscribe(ch))
}

// Close unsubscribes all event subscribers.
func (e *Engine) Close() {
	e.scope.Close()
}

type txn struct {
	ledger *settlement.Journal
	events []*Event
	now    uint64
}

func (tx *txn) emit(ev *Event) {
	ev.Timestamp = tx.now
	tx.events = append(tx.events, ev)
}

// transact runs fn as one atomic transition.
func (e *Engine) transact(op string, fn func(tx *txn) error) error {
	e.lock.Lock()
	tx := &txn{
		ledger: settlement.NewJournal(e.ledger),
		now:    e.options.Clock(),
	}
	err := e.apply(tx, fn)

	// hand over to the sender before unlocking, so events keep commit order
	e.sendLock.Lock()
	e.lock.Unlock()
	defer e.sendLock.Unlock()

	result := "ok"
	if err != nil {
		result = "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
			logger.Debug("operation reverted", "op", op, "err", err)
		} else {
			logger.Warn("operation failed", "op", op, "err", err)
		}
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})

	if err == nil {
		for _, ev := range tx.events {
			e.feed.Send(ev)
		}
	}
	return err
}

func (e *Engine) apply(tx *txn, fn func(tx *txn) error) (err error) {
	revision := e.st.NewCheckpoint()
	defer func() {
		if err == nil {
			tx.ledger.Reset()
			return
		}
		e.st.RevertTo(revision)
		if rerr := tx.ledger.Rollback(); rerr != nil {
			logger.Error("failed to compensate ledger", "cause", err, "err", rerr)
			err = errors.Wrapf(rerr, "compensate ledger after: %v", err)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return e.st.Commit()
}

// Stake adds amount to the stake of validator in pool, moving the funds from
// the validator's ledger account into the custody account of the pool.
func (e *Engine) Stake(poolID, validator mutual.Address, amount uint64) (*reputation.Record, error) {
	var rec *reputation.Record
	if err := e.transact("stake", func(tx *txn) error {
		pool, err := e.members.Pool(poolID)
		if err != nil {
			return err
		}
		var registered bool
		if rec, registered, err = e.registry.Stake(pool, validator, amount, tx.now); err != nil {
			return err
		}
		if err := tx.ledger.Transfer(validator, pool.Custody, amount); err != nil {
			return errors.Wrap(err, "transfer stake")
		}
		detail := "top-up"
		if registered {
			detail = "registered"
		}
		tx.emit(&Event{Kind: ValidatorStaked, Pool: pool.ID, Account: validator, Amount: amount, Detail: detail})
		logger.Info("validator staked", "pool", pool.ID, "validator", validator, "amount", amount, "stake", rec.Stake)
		return nil
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

// SubmitClaim files a claim and requests randomness to assign its validators.
// The claim stays Pending until the randomness arrives.
func (e *Engine) SubmitClaim(sub *claim.Submission) (*claim.Claim, error) {
	var c *claim.Claim
	if err := e.transact("submit-claim", func(tx *txn) error {
		pool, err := e.members.Pool(sub.Pool)
		if err != nil {
			return err
		}
		member, err := e.members.Member(pool.ID, sub.Claimant)
		if err != nil {
			return err
		}
		if err := claim.Validate(pool, member, sub, tx.now); err != nil {
			return err
		}
		candidates, err := e.registry.Candidates(pool.ID, sub.Claimant)
		if err != nil {
			return err
		}
		if uint64(len(candidates)) < pool.MinValidators {
			return reverts.Newf(reverts.ErrInsufficientValidators, "%d active validators, %d required", len(candidates), pool.MinValidators)
		}

		if c, err = e.claims.Create(sub, tx.now); err != nil {
			return err
		}
		req, err := e.broker.Request(randomness.AssignValidators, pool.ID, c.ID, c.ID.Bytes(), tx.now)
		if err != nil {
			return err
		}
		c.AssignmentRequest = req.ID
		if err := e.claims.Set(c); err != nil {
			return err
		}
		tx.emit(&Event{Kind: ClaimSubmitted, Pool: pool.ID, Claim: c.ID, Account: c.Claimant, Amount: c.Amount, Detail: c.IncidentType.String()})
		logger.Info("claim submitted", "id", c.ID, "pool", pool.ID, "claimant", c.Claimant, "amount", c.Amount, "request", req.ID)
		return nil
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// FulfillValidatorSelection assigns the validators of the claim waiting for
// request id and opens it for voting.
func (e *Engine) FulfillValidatorSelection(id, seed mutual.Bytes32) (*claim.Claim, error) {
	var c *claim.Claim
	if err := e.transact("fulfill-validator-selection", func(tx *txn) error {
		req, err := e.fulfillRequest(id, seed, randomness.AssignValidators, tx.now)
		if err != nil {
			return err
		}
		c, err = e.assignValidators(tx, req)
		return err
	}); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) fulfillRequest(id, result mutual.Bytes32, purpose randomness.Purpose, now uint64) (*randomness.Request, error) {
	req, err := e.broker.Get(id)
	if err != nil {
		return nil, err
	}
	if req.Purpose != purpose {
		return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "request %v is for %v", id, req.Purpose)
	}
	return e.broker.Fulfill(id, result, now)
}

func (e *Engine) assignValidators(tx *txn, req *randomness.Request) (*claim.Claim, error) {
	c, err := e.claims.Get(req.Consumer)
	if err != nil {
		return nil, err
	}
	pool, err := e.members.Pool(c.Pool)
	if err != nil {
		return nil, err
	}
	validators, err := e.registry.Select(pool.ID, c.Claimant, req.Result.Bytes(), int(pool.MinValidators))
	if err != nil {
		return nil, err
	}
	if err := c.Transition(claim.UnderValidation); err != nil {
		return nil, err
	}
	c.Validators = validators
	c.Seed = req.Result
	if err := e.claims.Set(c); err != nil {
		return nil, err
	}
	tx.emit(&Event{Kind: ValidatorsAssigned, Pool: pool.ID, Claim: c.ID, Account: c.Claimant, Amount: uint64(len(validators))})
	logger.Info("validators assigned", "claim", c.ID, "validators", validators)
	return c, nil
}

// ValidateClaim records the vote of validator. The vote reaching the majority
// threshold finalizes the claim, applying rewards and slashes to every voter,
// and an approved claim is queued for distribution.
func (e *Engine) ValidateClaim(id mutual.Bytes32, validator mutual.Address, decision claim.Decision, justification string) (*voting.Outcome, error) {
	var out *voting.Outcome
	if err := e.transact("validate-claim", func(tx *txn) error {
		c, err := e.claims.Get(id)
		if err != nil {
			return err
		}
		pool, err := e.members.Pool(c.Pool)
		if err != nil {
			return err
		}
		if out, err = e.votes.Cast(pool, id, validator, decision, justification, tx.now); err != nil {
			return err
		}
		tx.emit(&Event{Kind: VoteCast, Pool: pool.ID, Claim: id, Account: validator, Detail: decision.String()})
		if !out.Finalized {
			return nil
		}

		for _, slash := range out.Slashes {
			if slash.Amount > 0 {
				if err := e.sinkSlash(tx, pool, slash.Amount); err != nil {
					return err
				}
				metricSlashed().Add(int64(slash.Amount))
			}
			detail := "active"
			if slash.Deactivated {
				detail = "deactivated"
			}
			tx.emit(&Event{Kind: ValidatorSlashed, Pool: pool.ID, Claim: id, Account: slash.Validator, Amount: slash.Amount, Detail: detail})
		}
		tx.emit(&Event{Kind: ClaimFinalized, Pool: pool.ID, Claim: id, Account: out.Claim.Claimant, Amount: out.Claim.PayoutAmount, Detail: out.Claim.Status.String()})
		logger.Info("claim finalized", "id", id, "status", out.Claim.Status, "slashed", len(out.Slashes))

		if out.Claim.Status == claim.Approved {
			if err := e.enqueue(tx, id); err != nil {
				return err
			}
			if out.Claim, err = e.claims.Get(id); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) sinkSlash(tx *txn, pool *membership.Pool, amount uint64) error {
	switch e.options.SlashSink {
	case SinkBurn:
		if err := tx.ledger.Withdraw(pool.Custody, amount); err != nil {
			return errors.Wrap(err, "burn slashed stake")
		}
	default:
		if err := tx.ledger.Transfer(pool.Custody, pool.Fund, amount); err != nil {
			return errors.Wrap(err, "move slashed stake")
		}
	}
	return nil
}

// AddToDistributionQueue queues an approved claim. ValidateClaim does this on approval.
func (e *Engine) AddToDistributionQueue(id mutual.Bytes32) (*distribution.Entry, error) {
	var entry *distribution.Entry
	if err := e.transact("add-to-distribution-queue", func(tx *txn) error {
		if err := e.enqueue(tx, id); err != nil {
			return err
		}
		c, err := e.claims.Get(id)
		if err != nil {
			return err
		}
		queue, err := e.queue.Queue(c.Pool)
		if err != nil {
			return err
		}
		entry = &queue[len(queue)-1]
		return nil
	}); err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) enqueue(tx *txn, id mutual.Bytes32) error {
	entry, err := e.queue.Enqueue(id, tx.now)
	if err != nil {
		return err
	}
	c, err := e.claims.Get(id)
	if err != nil {
		return err
	}
	tx.emit(&Event{Kind: ClaimQueued, Pool: c.Pool, Claim: id, Account: entry.Claimant, Amount: entry.Amount})
	return e.reportQueue(c.Pool)
}

func (e *Engine) reportQueue(pool mutual.Address) error {
	q, err := e.queue.Queue(pool)
	if err != nil {
		return err
	}
	metricQueueLength().SetWithLabel(int64(len(q)), map[string]string{"pool": pool.String()})
	return nil
}

// DistributeClaims opens a distribution round over the queue of pool. When the
// fund covers the whole queue every claim is paid at once, otherwise the round
// waits for randomness to select the claims paid.
func (e *Engine) DistributeClaims(poolID mutual.Address) (*distribution.Round, error) {
	var round *distribution.Round
	if err := e.transact("distribute-claims", func(tx *txn) error {
		pool, err := e.members.Pool(poolID)
		if err != nil {
			return err
		}
		funds, err := tx.ledger.Balance(pool.Fund)
		if err != nil {
			return errors.Wrap(err, "get fund balance")
		}
		if round, err = e.queue.Open(pool.ID, funds, tx.now); err != nil {
			return err
		}
		tx.emit(&Event{Kind: RoundOpened, Pool: pool.ID, Round: round.Number, Amount: funds, Detail: oversubscription(round)})

		if !round.Oversubscribed {
			round, err = e.settle(tx, pool, round.Number, nil)
			return err
		}

		key := distribution.RoundKey(pool.ID, round.Number)
		req, err := e.broker.Request(randomness.SelectForDistribution, pool.ID, key, key.Bytes(), tx.now)
		if err != nil {
			return err
		}
		round.Request = req.ID
		if err := e.queue.SetRound(round); err != nil {
			return err
		}
		logger.Info("round awaiting randomness", "pool", pool.ID, "round", round.Number, "funds", funds, "entries", len(round.Snapshot))
		return nil
	}); err != nil {
		return nil, err
	}
	return round, nil
}

func oversubscription(r *distribution.Round) string {
	if r.Oversubscribed {
		return "oversubscribed"
	}
	return "covered"
}

// FulfillDistributionSelection settles the round waiting for request id.
func (e *Engine) FulfillDistributionSelection(id, seed mutual.Bytes32) (*distribution.Round, error) {
	var round *distribution.Round
	if err := e.transact("fulfill-distribution-selection", func(tx *txn) error {
		req, err := e.fulfillRequest(id, seed, randomness.SelectForDistribution, tx.now)
		if err != nil {
			return err
		}
		round, err = e.selectForDistribution(tx, req)
		return err
	}); err != nil {
		return nil, err
	}
	return round, nil
}

func (e *Engine) selectForDistribution(tx *txn, req *randomness.Request) (*distribution.Round, error) {
	pool, err := e.members.Pool(req.Pool)
	if err != nil {
		return nil, err
	}
	current, err := e.queue.CurrentRound(pool.ID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.Request != req.ID {
		return nil, errors.Errorf("no round of pool %v waits for request %v", pool.ID, req.ID)
	}
	return e.settle(tx, pool, current.Number, req.Result.Bytes())
}

func (e *Engine) settle(tx *txn, pool *membership.Pool, number uint64, seed []byte) (*distribution.Round, error) {
	round, err := e.queue.Settle(pool.ID, number, seed, tx.now)
	if err != nil {
		return nil, err
	}
	for _, entry := range round.Payouts() {
		if err := tx.ledger.Transfer(pool.Fund, entry.Claimant, entry.Amount); err != nil {
			return nil, errors.Wrapf(err, "pay claim %v", entry.Claim)
		}
		tx.emit(&Event{Kind: ClaimPaid, Pool: pool.ID, Claim: entry.Claim, Account: entry.Claimant, Amount: entry.Amount, Round: number})
	}
	tx.emit(&Event{Kind: RoundCompleted, Pool: pool.ID, Round: number, Amount: round.Paid})
	metricPaid().Add(int64(round.Paid))
	metricRoundPaid().Observe(int64(round.Paid))
	logger.Info("round completed", "pool", pool.ID, "round", number, "admitted", len(round.Admitted), "skipped", len(round.Skipped), "paid", round.Paid)
	return round, e.reportQueue(pool.ID)
}

// Fulfill delivers randomness for request id to whichever operation waits for it.
func (e *Engine) Fulfill(id, seed mutual.Bytes32) error {
	return e.transact("fulfill", func(tx *txn) error {
		req, err := e.broker.Fulfill(id, seed, tx.now)
		if err != nil {
			return err
		}
		switch req.Purpose {
		case randomness.AssignValidators:
			_, err = e.assignValidators(tx, req)
		case randomness.SelectForDistribution:
			_, err = e.selectForDistribution(tx, req)
		default:
			err = errors.Errorf("unknown purpose %v of request %v", req.Purpose, id)
		}
		return err
	})
}

// ReissueRequest requests randomness again for the claim or round waiting for
// request id, whose delivery was lost or rejected.
func (e *Engine) ReissueRequest(id mutual.Bytes32) (*randomness.Request, error) {
	var req *randomness.Request
	if err := e.transact("reissue-request", func(tx *txn) (err error) {
		req, err = e.reissue(tx, id)
		return err
	}); err != nil {
		return nil, err
	}
	return req, nil
}

func (e *Engine) reissue(tx *txn, id mutual.Bytes32) (*randomness.Request, error) {
	req, err := e.broker.Reissue(id, tx.now)
	if err != nil {
		return nil, err
	}
	ev := &Event{Kind: RandomnessReissued, Pool: req.Pool, Detail: req.ID.String()}
	switch req.Purpose {
	case randomness.AssignValidators:
		c, err := e.claims.Get(req.Consumer)
		if err != nil {
			return nil, err
		}
		if c.AssignmentRequest != id {
			return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "claim %v does not wait for %v", c.ID, id)
		}
		c.AssignmentRequest = req.ID
		if err := e.claims.Set(c); err != nil {
			return nil, err
		}
		ev.Claim = c.ID
	case randomness.SelectForDistribution:
		round, err := e.queue.CurrentRound(req.Pool)
		if err != nil {
			return nil, err
		}
		if round == nil || round.Request != id {
			return nil, reverts.Newf(reverts.ErrInvalidStateTransition, "no round of pool %v waits for %v", req.Pool, id)
		}
		round.Request = req.ID
		if err := e.queue.SetRound(round); err != nil {
			return nil, err
		}
		ev.Round = round.Number
	default:
		return nil, errors.Errorf("unknown purpose %v of request %v", req.Purpose, id)
	}
	tx.emit(ev)
	logger.Info("randomness reissued", "id", id, "new", req.ID, "purpose", req.Purpose, "consumer", req.Consumer)
	return req, nil
}

// ResumePending reissues every request waiting longer than minAge seconds, and
// returns how many were reissued. Run it after a restart, when the oracle has
// lost its queue, and periodically to retry deliveries that were rejected.
func (e *Engine) ResumePending(minAge uint64) (int, error) {
	e.lock.Lock()
	pending, err := e.broker.Pending()
	e.lock.Unlock()
	if err != nil {
		return 0, err
	}

	var n int
	for _, p := range pending {
		if minAge > 0 && e.options.Clock() < p.RequestedAt+minAge {
			continue
		}
		if _, err := e.ReissueRequest(p.ID); err != nil {
			// delivered or reissued since the snapshot
			if reverts.IsRevertErr(err) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}
