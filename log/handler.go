// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// NewTerminalHandler returns a human readable handler. Records below lvl are dropped,
// and lvl may be changed while the handler is installed.
func NewTerminalHandler(wr io.Writer, lvl *slog.LevelVar, useColor bool) slog.Handler {
	return &leveledHandler{
		inner: ethlog.NewTerminalHandler(wr, useColor),
		lvl:   lvl,
	}
}

// NewJSONHandler returns a handler which prints records in JSON format, filtered by lvl.
func NewJSONHandler(wr io.Writer, lvl *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: replaceJSON,
		Level:       lvl,
	})
}

// leveledHandler gates an unfiltered handler by a dynamic level.
type leveledHandler struct {
	inner slog.Handler
	lvl   *slog.LevelVar
}

func (h *leveledHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.lvl.Level() && h.inner.Enabled(ctx, level)
}

func (h *leveledHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.lvl.Level() {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *leveledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveledHandler{inner: h.inner.WithAttrs(attrs), lvl: h.lvl}
}

func (h *leveledHandler) WithGroup(name string) slog.Handler {
	return &leveledHandler{inner: h.inner.WithGroup(name), lvl: h.lvl}
}

func replaceJSON(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		return slog.Attr{Key: "t", Value: attr.Value}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", ethlog.LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case *uint256.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.Dec())
		}
	case fmt.Stringer:
		if v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil()) {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}
