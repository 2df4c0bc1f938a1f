// Package logger adapts zap to the ports.Logger contract.
package logger

import (
	"go.uber.org/zap"

	"github.com/doeshing/cmdsense/internal/ports"
)

// ZapLogger implements ports.Logger on a zap.SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New creates a ZapLogger. verbose enables development output with
// debug level; otherwise the production config applies.
func New(verbose bool) *ZapLogger {
	var core *zap.Logger
	var err error
	if verbose {
		core, err = zap.NewDevelopment()
	} else {
		core, err = zap.NewProduction()
	}
	if err != nil {
		core = zap.NewNop()
	}
	return &ZapLogger{sugar: core.Sugar()}
}

// NewNop creates a logger that discards everything; used in tests.
func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.sugar.Debugw(msg, flatten(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.sugar.Infow(msg, flatten(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.sugar.Warnw(msg, flatten(fields)...)
}

func (l *ZapLogger) Error(msg string, err error, fields map[string]interface{}) {
	kv := flatten(fields)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	l.sugar.Errorw(msg, kv...)
}

// Sync flushes buffered log entries; call at shutdown.
func (l *ZapLogger) Sync() {
	_ = l.sugar.Sync()
}

func flatten(fields map[string]interface{}) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}

var _ ports.Logger = (*ZapLogger)(nil)
