// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/mutual/auditdb"
	"github.com/vechain/mutual/engine"
	"github.com/vechain/mutual/mutual"
)

type auditRecord struct {
	Seq       uint64 `json:"seq"`
	Session   string `json:"session"`
	Kind      string `json:"kind"`
	Pool      string `json:"pool"`
	Claim     string `json:"claim,omitempty"`
	Account   string `json:"account,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Round     uint64 `json:"round,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp uint64 `json:"timestamp"`
}

func newAuditRecord(r *auditdb.Record) *auditRecord {
	out := &auditRecord{
		Seq:       r.Seq,
		Session:   r.Session,
		Kind:      r.Kind.String(),
		Pool:      r.Pool.String(),
		Amount:    r.Amount,
		Round:     r.Round,
		Detail:    r.Detail,
		Timestamp: r.Timestamp,
	}
	if !r.Claim.IsZero() {
		out.Claim = r.Claim.String()
	}
	if !r.Account.IsZero() {
		out.Account = r.Account.String()
	}
	return out
}

func auditFilter(ctx *cli.Context) (*auditdb.Filter, error) {
	filter := &auditdb.Filter{
		Options: &auditdb.Options{
			Offset: ctx.Uint64(offsetFlag.Name),
			Limit:  ctx.Uint64(limitFlag.Name),
		},
		Order: auditdb.ASC,
	}
	if ctx.Bool(descFlag.Name) {
		filter.Order = auditdb.DESC
	}
	if s := ctx.String(poolFlag.Name); s != "" {
		pool, err := mutual.ParseAddress(s)
		if err != nil {
			return nil, errors.Wrap(err, "pool")
		}
		filter.Pool = &pool
	}
	if s := ctx.String(claimFlag.Name); s != "" {
		id, err := mutual.ParseBytes32(s)
		if err != nil {
			return nil, errors.Wrap(err, "claim")
		}
		filter.Claim = &id
	}
	if s := ctx.String(accountFlag.Name); s != "" {
		account, err := mutual.ParseAddress(s)
		if err != nil {
			return nil, errors.Wrap(err, "account")
		}
		filter.Account = &account
	}
	for _, s := range ctx.StringSlice(kindFlag.Name) {
		kind, ok := engine.ParseEventKind(s)
		if !ok {
			return nil, errors.Errorf("unknown event kind %q", s)
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	if ctx.IsSet(fromFlag.Name) || ctx.IsSet(toFlag.Name) {
		filter.Range = &auditdb.Range{
			From: ctx.Uint64(fromFlag.Name),
			To:   ctx.Uint64(toFlag.Name),
		}
		if !ctx.IsSet(toFlag.Name) {
			filter.Range.To = math.MaxInt64
		}
	}
	return filter, nil
}

func auditAction(ctx *cli.Context) error {
	filter, err := auditFilter(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(ctx.String(dataDirFlag.Name), "audit.db")
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(err, "audit database")
	}
	db, err := auditdb.New(path)
	if err != nil {
		return errors.Wrapf(err, "open audit database [%v]", path)
	}
	defer db.Close()

	records, err := db.Filter(context.Background(), filter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, r := range records {
		if err := enc.Encode(newAuditRecord(r)); err != nil {
			return err
		}
	}
	return nil
}

func keygenAction(ctx *cli.Context) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return errors.Wrap(err, "generate key")
	}

	if out := ctx.String(outFlag.Name); out != "" {
		if err := crypto.SaveECDSA(out, key); err != nil {
			return errors.Wrapf(err, "save key [%v]", out)
		}
	} else {
		fmt.Println("sk:", hex.EncodeToString(crypto.FromECDSA(key)))
	}
	fmt.Println("pk:", hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey)))
	return nil
}
