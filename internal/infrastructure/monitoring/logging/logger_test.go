package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func newBufferLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestZapLogger_LevelsWrite(t *testing.T) {
	l, buf := newBufferLogger(t)
	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")
	out := buf.String()
	assert.Contains(t, out, "debug msg")
	assert.Contains(t, out, "\"level\":\"info\"")
	assert.Contains(t, out, "warn msg")
	assert.Contains(t, out, "\"level\":\"error\"")
}

func TestZapLogger_WithAddsFields(t *testing.T) {
	l, buf := newBufferLogger(t)
	l.With(String("evaluation_id", "ev-1"), Float64("weight", 33.34)).Info("saved")
	assert.Contains(t, buf.String(), "\"evaluation_id\":\"ev-1\"")
	assert.Contains(t, buf.String(), "\"weight\":33.34")
}

func TestZapLogger_Named(t *testing.T) {
	l, buf := newBufferLogger(t)
	l.Named("valuation").Info("recomputed")
	assert.Contains(t, buf.String(), "valuation")
}

func TestErrField(t *testing.T) {
	l, buf := newBufferLogger(t)
	l.Error("failed", Err(errors.New("pq: connection refused")))
	assert.Contains(t, buf.String(), "pq: connection refused")

	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "n", Value: 4}, Int("n", 4))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
	assert.Equal(t, Field{Key: "total", Value: int64(7)}, Int64("total", 7))
	assert.Equal(t, Field{Key: "ok", Value: true}, Bool("ok", true))
}

func TestNopLogger_NoPanics(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l := NewNopLogger()
	SetDefault(l)
	assert.Equal(t, l, Default())

	// nil is ignored
	SetDefault(nil)
	assert.Equal(t, l, Default())
}

func TestParseLevel_FallsBackToInfo(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
}
