package chainlog

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// ChainCore is a zapcore.Core that routes every accepted log entry through
// an Appender, so application logs land in the tamper-evident chain.
// Append failures propagate through zap's error handling; they never panic
// the host process.
type ChainCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	app *Appender
}

// NewChainCore wraps app in a zap core. enc serializes the entry and its
// fields into the message presented to the chain (the whole encoded line
// is covered by the MAC); nil selects a console encoder without timestamps,
// since the chain codec records its own.
func NewChainCore(app *Appender, enab zapcore.LevelEnabler, enc zapcore.Encoder) *ChainCore {
	if enc == nil {
		cfg := zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			NameKey:        "logger",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return &ChainCore{LevelEnabler: enab, enc: enc, app: app}
}

// With adds structured context to the core.
func (c *ChainCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.enc = c.enc.Clone()
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return &clone
}

// Check decides whether the entry should be logged by this core.
func (c *ChainCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write encodes the entry and appends it to the chain.
func (c *ChainCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	msg := strings.TrimRight(buf.String(), "\n")
	buf.Free()

	_, err = c.app.Append(msg, ent.Time)
	return err
}

// Sync is a no-op; the store syncs on every append.
func (c *ChainCore) Sync() error { return nil }
