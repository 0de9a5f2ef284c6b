package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// ZapAdapter routes watermill logs to zap.
type ZapAdapter struct{ log *zap.Logger }

var _ watermill.LoggerAdapter = ZapAdapter{}

// NewZapAdapter wraps log.
func NewZapAdapter(log *zap.Logger) ZapAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return ZapAdapter{log: log}
}

func fields(f watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (a ZapAdapter) Error(msg string, err error, f watermill.LogFields) {
	a.log.Error(msg, append(fields(f), zap.Error(err))...)
}

func (a ZapAdapter) Info(msg string, f watermill.LogFields) { a.log.Info(msg, fields(f)...) }

func (a ZapAdapter) Debug(msg string, f watermill.LogFields) { a.log.Debug(msg, fields(f)...) }

// Trace is logged at debug level; zap has no lower level.
func (a ZapAdapter) Trace(msg string, f watermill.LogFields) { a.log.Debug(msg, fields(f)...) }

func (a ZapAdapter) With(f watermill.LogFields) watermill.LoggerAdapter {
	return ZapAdapter{log: a.log.With(fields(f)...)}
}
