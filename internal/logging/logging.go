// Package logging assembles the run logger from the configured
// destinations: stdout, the local syslog daemon, and an append-only file.
// The logger is built once at startup and passed explicitly to every
// component; nothing logs through globals.
package logging

import (
	"fmt"
	"log/syslog"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenago/ls-updater/internal/messages"
)

// syslogTag identifies this tool's entries in the system log.
const syslogTag = "ls-updater"

// Options selects the enabled destinations. A zero Options produces a
// no-op logger.
type Options struct {
	Stdout bool
	Syslog bool
	// File is the log file path; empty disables file logging. Parent
	// directories are created as needed.
	File string
}

// New builds a logger writing to every enabled destination. The returned
// close function flushes and releases the underlying sinks.
func New(opts Options) (*zap.Logger, func(), error) {
	var cores []zapcore.Core
	var closers []func()

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Stdout {
		console := zapcore.NewConsoleEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(console, zapcore.Lock(os.Stdout), zapcore.InfoLevel))
	}
	if opts.Syslog {
		writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, syslogTag)
		if err != nil {
			return nil, nil, fmt.Errorf(messages.LogSyslogFmt, err)
		}
		enc := zapcore.NewConsoleEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(writer), zapcore.InfoLevel))
		closers = append(closers, func() { _ = writer.Close() })
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf(messages.LogFileDirFmt, opts.File, err)
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf(messages.LogFileOpenFmt, opts.File, err)
		}
		enc := zapcore.NewJSONEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(file), zapcore.InfoLevel))
		closers = append(closers, func() { _ = file.Close() })
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() {}, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeAll := func() {
		_ = logger.Sync()
		for _, c := range closers {
			c()
		}
	}
	return logger, closeAll, nil
}
