// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package auditdb keeps an append-only trail of engine events in sqlite.
package auditdb

import (
	"context"
	"database/sql"
	"math"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/mutual/engine"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/mutual"
)

var logger = log.WithContext("pkg", "auditdb")

type AuditDB struct {
	path          string
	db            *sql.DB
	session       string
	driverVersion string
}

// New creates or opens the audit db at path.
func New(path string) (auditDB *AuditDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if auditDB == nil {
			db.Close()
		}
	}()
	// every connection to :memory: opens a distinct database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &AuditDB{
		path:          path,
		db:            db,
		session:       uuid.New(),
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an audit db in ram.
func NewMem() (*AuditDB, error) {
	return New(":memory:")
}

func (db *AuditDB) Close() {
	db.db.Close()
}

func (db *AuditDB) Path() string {
	return db.path
}

// Session returns the id stamped on events written through this handle.
func (db *AuditDB) Session() string {
	return db.session
}

// ErrOutOfRange is returned by Write for events whose indexed fields do not fit sqlite integers.
var ErrOutOfRange = errors.New("exceeds sqlite integer range")

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, errors.Wrapf(ErrOutOfRange, "value %d", v)
	}
	return int64(v), nil
}

// Write appends events in one sqlite transaction.
func (db *AuditDB) Write(ctx context.Context, events ...*engine.Event) (err error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO event(session, kind, pool, claim, account, amount, round, detail, time) VALUES(?,?,?,?,?,?,?,?,?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		// amount is never compared in sql, so all 64 bits are kept as is
		amount := int64(ev.Amount)
		round, err := toInt64(ev.Round)
		if err != nil {
			return err
		}
		ts, err := toInt64(ev.Timestamp)
		if err != nil {
			return err
		}
		var claim []byte
		if !ev.Claim.IsZero() {
			claim = ev.Claim.Bytes()
		}
		if _, err := stmt.ExecContext(ctx,
			db.session,
			ev.Kind.String(),
			ev.Pool.Bytes(),
			claim,
			ev.Account.Bytes(),
			amount,
			round,
			ev.Detail,
			ts,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Filter returns recorded events matching filter, oldest first unless ordered DESC.
func (db *AuditDB) Filter(ctx context.Context, filter *Filter) ([]*Record, error) {
	if filter == nil {
		return db.query(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Pool != nil {
		args = append(args, filter.Pool.Bytes())
		stmt += " AND pool = ? "
	}
	if filter.Claim != nil {
		args = append(args, filter.Claim.Bytes())
		stmt += " AND claim = ? "
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if len(filter.Kinds) > 0 {
		marks := make([]string, 0, len(filter.Kinds))
		for _, k := range filter.Kinds {
			args = append(args, k.String())
			marks = append(marks, "?")
		}
		stmt += " AND kind IN (" + strings.Join(marks, ",") + ") "
	}
	if filter.Range != nil {
		from, err := toInt64(filter.Range.From)
		if err != nil {
			return nil, err
		}
		args = append(args, from)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			to, err := toInt64(filter.Range.To)
			if err != nil {
				return nil, err
			}
			args = append(args, to)
			stmt += " AND time <= ? "
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *AuditDB) query(ctx context.Context, stmt string, args ...any) ([]*Record, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     int64
			session string
			kind    string
			pool    []byte
			claim   []byte
			account []byte
			amount  int64
			round   int64
			detail  string
			ts      int64
		)
		if err := rows.Scan(&seq, &session, &kind, &pool, &claim, &account, &amount, &round, &detail, &ts); err != nil {
			return nil, err
		}
		k, ok := engine.ParseEventKind(kind)
		if !ok {
			return nil, errors.Errorf("unknown event kind %q at seq %d", kind, seq)
		}
		records = append(records, &Record{
			Seq:     uint64(seq),
			Session: session,
			Event: engine.Event{
				Kind:      k,
				Pool:      mutual.BytesToAddress(pool),
				Claim:     mutual.BytesToBytes32(claim),
				Account:   mutual.BytesToAddress(account),
				Amount:    uint64(amount),
				Round:     uint64(round),
				Detail:    detail,
				Timestamp: uint64(ts),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
