// Package logging builds the zap logger shared by the desktop app and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"yashubustudio/healthnavigator/navigator"
)

// Options tweaks where log lines go.
type Options struct {
	// Console receives human readable lines. Defaults to os.Stdout.
	Console io.Writer
	// Extra receives the same console lines, e.g. the GUI log panel.
	Extra []zapcore.WriteSyncer
	// Level overrides cfg.Level when non-empty.
	Level string
}

// New builds a logger that writes console lines and, when cfg.File is set,
// JSON lines into a rotating file.
func New(cfg navigator.LogConfig, opts Options) (*zap.Logger, error) {
	levelText := cfg.Level
	if opts.Level != "" {
		levelText = opts.Level
	}
	if levelText == "" {
		levelText = "info"
	}
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	enabler := zap.NewAtomicLevelAt(level)

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEnc := zapcore.NewConsoleEncoder(consoleCfg)

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.AddSync(console), enabler),
	}
	for _, ws := range opts.Extra {
		cores = append(cores, zapcore.NewCore(consoleEnc, ws, enabler))
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(rotator), enabler))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}
