// Package logging builds the run logger and names the per-run output folder.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFile is the name of the run log inside a run folder.
const LogFile = "log.txt"

// RunDir names the folder for one run: <root>/<date>/<time>[: note].
func RunDir(root, note string, now time.Time) string {
	stamp := now.Format("15:04:05")
	if note = strings.TrimSpace(note); note != "" {
		stamp += ": " + note
	}
	return filepath.Join(root, now.Format("2006-Jan-02"), stamp)
}

// MakeRunDir creates the run folder and its parents.
func MakeRunDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("make run folder: %w", err)
	}
	return nil
}

// New returns a console logger at info level, or debug when verbose. When
// dir is non-empty the same entries are also written to dir/log.txt. The
// returned func flushes and closes the file.
func New(verbose bool, dir string) (*zap.SugaredLogger, func(), error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCfg.TimeKey = ""
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	closeFile := func() {}
	if dir != "" {
		if err := MakeRunDir(dir); err != nil {
			return nil, nil, err
		}
		f, err := os.Create(filepath.Join(dir, LogFile))
		if err != nil {
			return nil, nil, fmt.Errorf("create run log: %w", err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(f), zapcore.DebugLevel))
		closeFile = func() { f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger.Sugar(), func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}
