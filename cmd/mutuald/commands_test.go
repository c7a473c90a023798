// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/mutual/auditdb"
	"github.com/vechain/mutual/engine"
	"github.com/vechain/mutual/mutual"
)

var auditFlags = []cli.Flag{poolFlag, claimFlag, accountFlag, kindFlag, fromFlag, toFlag, offsetFlag, limitFlag, descFlag}

func TestAuditFilter(t *testing.T) {
	filter, err := auditFilter(newContext(t, auditFlags))
	require.NoError(t, err)
	assert.Nil(t, filter.Pool)
	assert.Nil(t, filter.Range)
	assert.Equal(t, auditdb.ASC, filter.Order)
	assert.Equal(t, uint64(100), filter.Options.Limit)

	filter, err = auditFilter(newContext(t, auditFlags,
		"--pool", poolID,
		"--kind", engine.ClaimPaid.String(),
		"--kind", engine.RoundCompleted.String(),
		"--from", "10",
		"--desc",
	))
	require.NoError(t, err)
	require.NotNil(t, filter.Pool)
	assert.Equal(t, mutual.MustParseAddress(poolID), *filter.Pool)
	assert.Equal(t, []engine.EventKind{engine.ClaimPaid, engine.RoundCompleted}, filter.Kinds)
	assert.Equal(t, &auditdb.Range{From: 10, To: math.MaxInt64}, filter.Range)
	assert.Equal(t, auditdb.DESC, filter.Order)
}

func TestAuditFilterRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad pool", []string{"--pool", "0x01"}},
		{"bad claim", []string{"--claim", "xyz"}},
		{"bad account", []string{"--account", "bob"}},
		{"bad kind", []string{"--kind", "claim-exploded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auditFilter(newContext(t, auditFlags, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestNewAuditRecord(t *testing.T) {
	rec := newAuditRecord(&auditdb.Record{
		Seq:     7,
		Session: "s",
		Event: engine.Event{
			Kind:      engine.RoundOpened,
			Pool:      mutual.MustParseAddress(poolID),
			Round:     2,
			Timestamp: 1100,
		},
	})
	assert.Equal(t, engine.RoundOpened.String(), rec.Kind)
	assert.Equal(t, poolID, rec.Pool)
	assert.Empty(t, rec.Claim)
	assert.Empty(t, rec.Account)
}
