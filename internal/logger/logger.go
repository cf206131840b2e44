package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/csheth/resurch/internal/config"
)

// StderrTarget routes log output to stderr instead of a file.
const StderrTarget = "-"

// Package-level logger to be used across packages after Init.
var S = zap.NewNop().Sugar()

var closer func() error

// Init initializes a zap SugaredLogger using settings from config. The TUI
// owns stdout, so records go to cfg.LogFile unless it is StderrTarget.
func Init(cfg *config.Config) (*zap.SugaredLogger, error) {
	sink, closeFn, err := openSink(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(sink),
		parseLevel(cfg.LogLevel),
	)

	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	S = log.Sugar()
	closer = closeFn
	return S, nil
}

// Close flushes buffered records and releases the log file.
func Close() error {
	if S == nil {
		return nil
	}
	_ = S.Sync()
	if closer != nil {
		err := closer()
		closer = nil
		return err
	}
	return nil
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

func parseLevel(value string) zapcore.Level {
	switch value {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func openSink(path string) (zapcore.WriteSyncer, func() error, error) {
	if path == "" || path == StderrTarget {
		return zapcore.AddSync(os.Stderr), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.AddSync(file), file.Close, nil
}
