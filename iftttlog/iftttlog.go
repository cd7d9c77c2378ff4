// Package iftttlog provides the engine's verbose trace logger, kept
// separate from the diagnostic output stream: diagnostics are lint
// results written to stdout, traces are "why" narration for the
// person running the tool written to stderr.
package iftttlog

import "go.uber.org/zap"

// New builds a zap.Logger that writes trace lines to stderr when
// verbose is true, and discards everything otherwise. Callers should
// defer Sync() (best-effort; stderr Sync commonly errors on
// non-file descriptors and that error is intentionally discarded).
func New(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		// A logger build failure here means stderr itself is
		// unusable; fall back to discarding rather than fail the
		// whole invocation over trace output.
		return zap.NewNop()
	}
	return logger
}
