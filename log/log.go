// Copyright (c) 2025 The dusk-go developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the contextual logger used across the node.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger is the logging interface carried by packages.
type Logger interface {
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)

	// New returns a logger with the given key/value context appended.
	New(ctx ...any) Logger
}

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// SetRootHandler replaces the process-wide handler.
func SetRootHandler(h slog.Handler) {
	root.Store(slog.New(h))
}

// DiscardAll silences all loggers, mainly for tests.
func DiscardAll() {
	SetRootHandler(discardHandler{})
}

// WithContext returns a logger bound to the given key/value context.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

type logger struct {
	ctx []any
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	root.Load().Log(context.Background(), level, msg, append(append([]any{}, l.ctx...), ctx...)...)
}

func (l *logger) Debug(msg string, ctx ...any) { l.write(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(slog.LevelError, msg, ctx) }

func (l *logger) New(ctx ...any) Logger {
	return &logger{ctx: append(append([]any{}, l.ctx...), ctx...)}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
