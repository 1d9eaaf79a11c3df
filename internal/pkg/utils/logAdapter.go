package utils

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// PgxLogAdapter writes pgx trace logs to goapp.Log
type PgxLogAdapter struct {
}

// NewPgxLogAdapter creates adapter
func NewPgxLogAdapter() *PgxLogAdapter {
	return &PgxLogAdapter{}
}

// Log implements tracelog.Logger
func (l *PgxLogAdapter) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	le := goapp.Log.WithLevel(toZerologLevel(level))
	for k, v := range data {
		le = le.Interface(k, v)
	}
	le.Msg(msg)
}

func toZerologLevel(level tracelog.LogLevel) zerolog.Level {
	switch level {
	case tracelog.LogLevelTrace:
		return zerolog.TraceLevel
	case tracelog.LogLevelDebug:
		return zerolog.DebugLevel
	case tracelog.LogLevelInfo:
		return zerolog.InfoLevel
	case tracelog.LogLevelWarn:
		return zerolog.WarnLevel
	case tracelog.LogLevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.NoLevel
}
