package chainlog

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestChainCore_LogsLandInChain(t *testing.T) {
	st := &memStore{}
	app, err := New(Config{Key: []byte("k")}, st)
	if err != nil {
		t.Fatal(err)
	}

	logger := zap.New(NewChainCore(app, zapcore.InfoLevel, nil))
	logger.Info("user login", zap.String("user", "alice"))
	logger.Debug("dropped by level")
	logger.Warn("disk almost full")
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	v, _ := NewVerifier(Config{Key: []byte("k")})
	rep := v.Verify(st)
	if !rep.Valid || rep.ProcessedLines != 2 {
		t.Fatalf("chain after zap logging: %s", rep)
	}
}

func TestChainCore_WithFields(t *testing.T) {
	st := &memStore{}
	app, err := New(Config{Key: []byte("k")}, st)
	if err != nil {
		t.Fatal(err)
	}

	base := zap.New(NewChainCore(app, zapcore.DebugLevel, nil))
	child := base.With(zap.String("component", "billing"))
	child.Info("invoice issued")
	base.Info("unrelated")

	v, _ := NewVerifier(Config{Key: []byte("k")})
	if rep := v.Verify(st); !rep.Valid || rep.ProcessedLines != 2 {
		t.Fatalf("chain after contextual logging: %s", rep)
	}
	if len(st.lines) != 2 {
		t.Fatalf("lines = %d", len(st.lines))
	}
}

func TestChainCore_AppendFailureSurfaces(t *testing.T) {
	st := &memStore{}
	app, err := New(Config{Key: []byte("k")}, st)
	if err != nil {
		t.Fatal(err)
	}

	core := NewChainCore(app, zapcore.InfoLevel, nil)
	st.appendErr = errFake

	werr := core.Write(zapcore.Entry{Level: zapcore.InfoLevel, Message: "boom"}, nil)
	if werr == nil {
		t.Fatal("append failure swallowed")
	}
	if app.Head() != DefaultGenesisSeed {
		t.Fatal("cursor advanced despite failed write")
	}
}

var errFake = errorString("fake store failure")

type errorString string

func (e errorString) Error() string { return string(e) }
