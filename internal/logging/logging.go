// Package logging holds the verbosity levels used with logr and builds the
// zap backed logger used by the command line tool.
package logging

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels passed to logr.Logger.V.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// NewLogger returns a console logger writing to w that emits messages up to
// the given verbosity (INFO, DEBUG or TRACE).
func NewLogger(verbosity int, w io.Writer) logr.Logger {
	if verbosity < INFO {
		verbosity = INFO
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	// zap levels below Debug are logr verbosities
	level := zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zapr.NewLogger(zap.New(core))
}
