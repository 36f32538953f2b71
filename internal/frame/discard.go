package frame

import (
	"context"
	"log/slog"
)

// DiscardHandler is a slog.Handler that drops every record. It backs the
// default loggers of this module.
type DiscardHandler struct{}

func (DiscardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (DiscardHandler) Handle(context.Context, slog.Record) error { return nil }
func (DiscardHandler) WithAttrs([]slog.Attr) slog.Handler        { return DiscardHandler{} }
func (DiscardHandler) WithGroup(string) slog.Handler             { return DiscardHandler{} }
