// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package scoped loggers on top of go-ethereum's slog based logger.
// Loggers obtained before SetDefault is called follow the handler installed later.
package log

import (
	"context"
	"log/slog"
	"sync/atomic"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger is the structured key/value logger.
type Logger = ethlog.Logger

// Legacy verbosity levels accepted on the command line.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// Levels understood by the handlers, including the two go-ethereum extensions.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// installed boxes the handler so handlers of any concrete type can be swapped.
type installed struct{ h slog.Handler }

var (
	current atomic.Pointer[installed]
	root    = ethlog.NewLogger(&swapHandler{})
)

func init() {
	current.Store(&installed{ethlog.DiscardHandler()})
}

// SetDefault installs h as the handler of every logger created by this package.
func SetDefault(h slog.Handler) {
	current.Store(&installed{h})
}

// Root returns the root logger.
func Root() Logger {
	return root
}

// WithContext returns a new logger with the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return root.With(ctx...)
}

// FromLegacyLevel maps a command line verbosity onto a level.
func FromLegacyLevel(lvl int) slog.Level {
	return ethlog.FromLegacyLevel(lvl)
}

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }

// swapHandler resolves the installed handler on every call.
type swapHandler struct {
	attrs []slog.Attr
	group string
}

func (h *swapHandler) resolve() slog.Handler {
	inner := current.Load().h
	if h.group != "" {
		inner = inner.WithGroup(h.group)
	}
	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}
	return inner
}

func (h *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return current.Load().h.Enabled(ctx, level)
}

func (h *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &swapHandler{attrs: merged, group: h.group}
}

func (h *swapHandler) WithGroup(name string) slog.Handler {
	return &swapHandler{attrs: h.attrs, group: name}
}
