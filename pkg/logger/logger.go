// Package logger constructs the structured loggers used throughout
// ignitekv's engine, storage, and server layers.
package logger

import (
	"go.uber.org/zap"
)

// New builds a production-configured *zap.SugaredLogger tagged with the
// given service name. Every internal package that logs takes one of these
// through its Config rather than constructing its own, so log output stays
// consistent regardless of which component emitted it.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder/sink config,
		// which never happens with the default config used here.
		base = zap.NewNop()
	}
	return base.Sugar().With("service", service)
}

// NewDevelopment builds a human-readable, colorized logger suitable for
// local development and the CLI front ends.
func NewDevelopment(service string) *zap.SugaredLogger {
	base, err := zap.NewDevelopment()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().With("service", service)
}
