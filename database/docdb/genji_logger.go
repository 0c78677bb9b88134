package docdb

import (
	"fmt"
	"strings"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// badgerLogger forwards badger's printf-style logs into the process logger.
type badgerLogger struct {
	l *zap.Logger
}

func newBadgerLogger(level string) (*badgerLogger, error) {
	var lvl zapcore.Level
	if level == "" {
		level = "INFO"
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("unsupported docdb log level %q", level)
	}
	l := log.L().WithOptions(zap.IncreaseLevel(lvl)).With(zap.String("component", "badger"))
	return &badgerLogger{l: l}, nil
}

func (b *badgerLogger) Errorf(f string, v ...interface{}) {
	b.l.Error(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b *badgerLogger) Warningf(f string, v ...interface{}) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b *badgerLogger) Infof(f string, v ...interface{}) {
	b.l.Info(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b *badgerLogger) Debugf(f string, v ...interface{}) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(f, v...)))
}
