// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the yaml description of pools, balances and an optional
// scenario replayed at startup.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/mutual/claim"
	"github.com/vechain/mutual/engine"
	"github.com/vechain/mutual/membership"
	"github.com/vechain/mutual/mutual"
)

type Config struct {
	DataDir          string            `yaml:"data_dir"`
	CacheSizeMB      int               `yaml:"cache_size_mb"`
	RegistryCapacity int               `yaml:"registry_capacity"`
	SlashSink        string            `yaml:"slash_sink"`
	Pools            []Pool            `yaml:"pools"`
	Balances         map[string]uint64 `yaml:"balances"`
	Scenario         []Step            `yaml:"scenario"`
}

type Pool struct {
	ID            string   `yaml:"id"`
	Type          string   `yaml:"type"`
	ClaimWindow   uint64   `yaml:"claim_window"`
	MinValidators uint64   `yaml:"min_validators"`
	MinStake      uint64   `yaml:"min_stake"`
	Fund          string   `yaml:"fund"`
	Custody       string   `yaml:"custody"`
	Members       []Member `yaml:"members"`
}

type Member struct {
	Address       string `yaml:"address"`
	JoinedAt      uint64 `yaml:"joined_at"`
	CoverageLimit uint64 `yaml:"coverage_limit"`
	Inactive      bool   `yaml:"inactive"`
}

// Step is one operation of a scenario. Claims are referred to by the index of
// the submit step that created them, counting submits only. At sets the engine
// clock for the step and keeps the previous value when zero.
type Step struct {
	At            uint64 `yaml:"at"`
	Op            string `yaml:"op"`
	Pool          string `yaml:"pool"`
	Account       string `yaml:"account"`
	Amount        uint64 `yaml:"amount"`
	Incident      string `yaml:"incident"`
	IncidentAt    uint64 `yaml:"incident_at"`
	Evidence      string `yaml:"evidence"`
	Claim         int    `yaml:"claim"`
	Decision      string `yaml:"decision"`
	Justification string `yaml:"justification"`
}

const (
	OpStake      = "stake"
	OpSubmit     = "submit"
	OpVote       = "vote"
	OpDistribute = "distribute"
)

// Load reads and validates the config file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %v", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %v", path)
	}
	return &cfg, nil
}

func parseAccount(s, what string) (mutual.Address, error) {
	addr, err := mutual.ParseAddress(s)
	if err != nil {
		return mutual.Address{}, errors.Wrapf(err, "%v", what)
	}
	if addr.IsZero() {
		return mutual.Address{}, errors.Errorf("%v: zero address", what)
	}
	return addr, nil
}

// Validate checks the config is complete and consistent.
func (c *Config) Validate() error {
	if c.CacheSizeMB < 0 {
		return errors.New("cache_size_mb: negative")
	}
	if c.RegistryCapacity < 0 {
		return errors.New("registry_capacity: negative")
	}
	if _, err := engine.ParseSlashSink(c.SlashSink); err != nil {
		return errors.Wrap(err, "slash_sink")
	}
	if len(c.Pools) == 0 {
		return errors.New("pools: none defined")
	}

	var (
		seen     = make(map[mutual.Address]bool)
		funds    = make(map[mutual.Address]bool)
		custodies = make(map[mutual.Address]bool)
	)
	for i, p := range c.Pools {
		pool, err := p.build()
		if err != nil {
			return errors.Wrapf(err, "pools[%d]", i)
		}
		if seen[pool.ID] {
			return errors.Errorf("pools[%d]: duplicated id %v", i, pool.ID)
		}
		seen[pool.ID] = true

		// distribution rounds snapshot the fund balance of a single pool
		if funds[pool.Fund] || custodies[pool.Fund] {
			return errors.Errorf("pools[%d]: fund %v used by another pool", i, pool.Fund)
		}
		if funds[pool.Custody] {
			return errors.Errorf("pools[%d]: custody %v is the fund of another pool", i, pool.Custody)
		}
		funds[pool.Fund] = true
		custodies[pool.Custody] = true

		members := make(map[mutual.Address]bool)
		for j, m := range p.Members {
			addr, err := parseAccount(m.Address, "address")
			if err != nil {
				return errors.Wrapf(err, "pools[%d].members[%d]", i, j)
			}
			if members[addr] {
				return errors.Errorf("pools[%d].members[%d]: duplicated member %v", i, j, addr)
			}
			members[addr] = true
		}
	}

	for acc := range c.Balances {
		if _, err := parseAccount(acc, "balances"); err != nil {
			return err
		}
	}

	var at uint64
	for i, s := range c.Scenario {
		if err := s.validate(); err != nil {
			return errors.Wrapf(err, "scenario[%d]", i)
		}
		if s.At != 0 {
			if s.At < at {
				return errors.Errorf("scenario[%d]: at %d before %d", i, s.At, at)
			}
			at = s.At
		}
	}
	return nil
}

func (p *Pool) build() (*membership.Pool, error) {
	id, err := parseAccount(p.ID, "id")
	if err != nil {
		return nil, err
	}
	typ, err := membership.ParsePoolType(p.Type)
	if err != nil {
		return nil, errors.Wrap(err, "type")
	}
	if p.MinValidators < mutual.MinValidatorsFloor {
		return nil, errors.Errorf("min_validators: %d below %d", p.MinValidators, mutual.MinValidatorsFloor)
	}
	// an even panel can split evenly and never finalize
	if p.MinValidators%2 == 0 {
		return nil, errors.Errorf("min_validators: %d is even", p.MinValidators)
	}
	if p.MinStake == 0 {
		return nil, errors.New("min_stake: zero")
	}
	if p.ClaimWindow == 0 {
		return nil, errors.New("claim_window: zero")
	}
	fund, err := parseAccount(p.Fund, "fund")
	if err != nil {
		return nil, err
	}
	custody, err := parseAccount(p.Custody, "custody")
	if err != nil {
		return nil, err
	}
	if fund == custody {
		return nil, errors.New("fund and custody share an account")
	}
	return &membership.Pool{
		ID:            id,
		Type:          typ,
		ClaimWindow:   p.ClaimWindow,
		MinValidators: p.MinValidators,
		MinStake:      p.MinStake,
		Fund:          fund,
		Custody:       custody,
	}, nil
}

func (s *Step) validate() error {
	switch s.Op {
	case OpStake, OpSubmit, OpVote:
		if _, err := parseAccount(s.Account, "account"); err != nil {
			return err
		}
	case OpDistribute:
	default:
		return errors.Errorf("unknown op %q", s.Op)
	}
	if s.Op == OpVote {
		if s.Decision != "approve" && s.Decision != "reject" {
			return errors.Errorf("decision: %q", s.Decision)
		}
		if s.Claim < 0 {
			return errors.New("claim: negative")
		}
		return nil
	}
	if s.Op == OpSubmit {
		if _, ok := claim.ParseIncidentType(s.Incident); !ok {
			return errors.Errorf("incident: %q", s.Incident)
		}
	}
	if _, err := parseAccount(s.Pool, "pool"); err != nil {
		return err
	}
	return nil
}

// Members builds the static membership service described by the config.
func (c *Config) Members() (*membership.Static, error) {
	static := membership.NewStatic()
	for i, p := range c.Pools {
		pool, err := p.build()
		if err != nil {
			return nil, errors.Wrapf(err, "pools[%d]", i)
		}
		static.AddPool(*pool)
		for j, m := range p.Members {
			addr, err := parseAccount(m.Address, "address")
			if err != nil {
				return nil, errors.Wrapf(err, "pools[%d].members[%d]", i, j)
			}
			static.AddMember(membership.Member{
				Pool:          pool.ID,
				Address:       addr,
				JoinedAt:      m.JoinedAt,
				CoverageLimit: m.CoverageLimit,
				Active:        !m.Inactive,
			})
		}
	}
	return static, nil
}

// OpeningBalances returns the initial ledger balances.
func (c *Config) OpeningBalances() (map[mutual.Address]uint64, error) {
	balances := make(map[mutual.Address]uint64, len(c.Balances))
	for acc, b := range c.Balances {
		addr, err := parseAccount(acc, "balances")
		if err != nil {
			return nil, err
		}
		balances[addr] = b
	}
	return balances, nil
}

// EngineOptions returns engine options without a clock.
func (c *Config) EngineOptions() (engine.Options, error) {
	sink, err := engine.ParseSlashSink(c.SlashSink)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		RegistryCapacity: c.RegistryCapacity,
		SlashSink:        sink,
	}, nil
}
