// internal/cmdutil/log.go
package cmdutil

import (
	"io"
	"math"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"unfold-core/unfold"
)

// NewLogger builds a console logger writing to dst. quiet keeps errors only;
// verbose enables per-iteration debug lines. Timestamps are omitted so
// stderr stays diffable.
func NewLogger(dst io.Writer, quiet, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	switch {
	case quiet:
		level = zapcore.ErrorLevel
	case verbose:
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(dst), level)
	return zap.New(core)
}

func Warnf(log *zap.Logger, format string, a ...any) {
	log.Sugar().Warnf(format, a...)
}

// IterationLogger logs every completed iteration at debug level.
type IterationLogger struct {
	Log       *zap.Logger
	Run       string
	Threshold float64
}

func (l IterationLogger) OnIterationComplete(s unfold.IterationState) {
	if ce := l.Log.Check(zapcore.DebugLevel, "iteration"); ce != nil {
		fields := []zap.Field{
			zap.String("run", l.Run),
			zap.Int("iteration", s.Iteration),
			zap.Float64("ts_stopping", l.Threshold),
			zap.Bool("converged", s.Converged),
		}
		if !math.IsInf(s.TS, 0) {
			fields = append(fields, zap.Float64("ts", s.TS))
		}
		ce.Write(fields...)
	}
}
