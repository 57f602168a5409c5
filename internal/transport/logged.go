package transport

import (
	"context"

	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogOption is a bitmask for selecting which operations to log.
type LogOption uint8

const (
	LogNone  LogOption = 0
	LogRead  LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// NewLoggedBus wraps inner and logs the selected operations at level. A nil
// logger uses the global logger.
func NewLoggedBus(inner Bus, logger *zap.Logger, level zapcore.Level, opts LogOption) Bus {
	return NewLoggedBusWithFilter(inner, logger, level, opts, nil)
}

// NewLoggedBusWithFilter is NewLoggedBus restricted to frames accepted by
// filter. A nil filter accepts every frame.
func NewLoggedBusWithFilter(inner Bus, logger *zap.Logger, level zapcore.Level, opts LogOption, filter FrameFilter) Bus {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &loggedBus{
		inner:  inner,
		logger: logger.Named("bus"),
		level:  level,
		opts:   opts,
		filter: filter,
	}
}

type loggedBus struct {
	inner  Bus
	logger *zap.Logger
	level  zapcore.Level
	opts   LogOption
	filter FrameFilter
}

func (l *loggedBus) wants(f protocol.Frame) bool {
	return l.filter == nil || l.filter(f)
}

func (l *loggedBus) Send(ctx context.Context, frame protocol.Frame) error {
	logWrite := l.opts&LogWrite != 0
	if logWrite && l.wants(frame) {
		if ce := l.logger.Check(l.level, "send"); ce != nil {
			ce.Write(logging.FrameFields(frame)...)
		}
	}
	err := l.inner.Send(ctx, frame)
	if logWrite && err != nil {
		l.logger.Error("send failed",
			zap.String("frame", frame.String()),
			zap.Error(err),
		)
	}
	return err
}

func (l *loggedBus) Receive(ctx context.Context) (protocol.Frame, error) {
	f, err := l.inner.Receive(ctx)
	if l.opts&LogRead == 0 {
		return f, err
	}
	if err != nil {
		if ctx.Err() == nil && err != ErrClosed {
			l.logger.Error("receive failed", zap.Error(err))
		}
		return f, err
	}
	if l.wants(f) {
		if ce := l.logger.Check(l.level, "receive"); ce != nil {
			ce.Write(logging.FrameFields(f)...)
		}
	}
	return f, nil
}

// Close forwards to the inner Bus without logging.
func (l *loggedBus) Close() error {
	return l.inner.Close()
}
