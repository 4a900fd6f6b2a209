package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initLogging builds the run's logger. With --log, everything from debug
// level up goes to the named file, which is truncated first. Otherwise
// warnings and errors go to stderr.
func (a *app) initLogging(cmd *cobra.Command) error {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	path := a.v.GetString("log")
	if path == "" {
		core := zapcore.NewCore(encoder, zapcore.AddSync(cmd.ErrOrStderr()), zapcore.WarnLevel)
		a.logger = zap.New(core).Named(programName)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return withExit(ExitFileIO, fmt.Errorf("open log file: %w", err))
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(f), zapcore.DebugLevel)
	a.logger = zap.New(core).Named(programName)
	a.closeLog = f.Close

	a.logger.Info("program started", zap.String("version", version))
	a.logger.Info("command line", zap.String("args", strings.Join(a.args, " ")))
	return nil
}

func (a *app) syncLog() {
	_ = a.logger.Sync()
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}
