// Package xlog builds the default leveled logger shared across
// signaturestream and ctsemeta, mirroring the teacher's own per-component
// logger construction (pe.Options.Logger, built with log.NewStdLogger +
// log.NewFilter + log.FilterLevel in file.go) but filtered from a single
// environment variable instead of a caller-supplied Options struct, per
// spec section 6 ("a single variable selects log-filter level").
package xlog

import (
	"os"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

// EnvVar is the environment variable that selects the default log level.
const EnvVar = "SERIOUSSAVE_LOG"

func levelFromString(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.LevelDebug
	case "info":
		return log.LevelInfo
	case "error":
		return log.LevelError
	case "warn", "":
		return log.LevelWarn
	default:
		return log.LevelWarn
	}
}

var defaultHelper = NewHelper(levelFromString(os.Getenv(EnvVar)))

// NewHelper builds a stderr-backed, level-filtered *log.Helper, the same
// shape as the teacher's file.go logger construction.
func NewHelper(level log.Level) *log.Helper {
	logger := log.NewStdLogger(os.Stderr)
	return log.NewHelper(log.NewFilter(logger, log.FilterLevel(level)))
}

// Default returns the process-wide default logger, filtered per EnvVar.
func Default() *log.Helper { return defaultHelper }

// Or returns h if non-nil, otherwise the package default — the same
// nil-defaulting pattern as the teacher's Options.Logger.
func Or(h *log.Helper) *log.Helper {
	if h != nil {
		return h
	}
	return defaultHelper
}
