package chainlog

import (
	"fmt"
	"sync"
	"time"
)

// DefaultGenesisSeed is substituted for "previous hash" on the first entry.
// Appender and verifier deployments must agree on it.
const DefaultGenesisSeed = "INIT_SEED_0000"

// Store abstracts persistence of the chain and its head pointer. The line
// store and the head location are two resources but one unit of state: a
// Store must update both on every Append.
type Store interface {
	// Append persists one serialized entry to the append-only store and
	// overwrites the head pointer with head. The line must not contain
	// newlines.
	Append(line, head string) error
	// Iter streams every physical line of the store in order, blank lines
	// included. The returned func releases the iterator.
	Iter() (<-chan string, func() error, error)
	// Head returns the persisted head pointer. ok is false when no head
	// has been recorded; that is a valid state, not an error.
	Head() (head string, ok bool, err error)
	Close() error
}

// AppendError is the typed failure returned by Appender.Append. Op names
// the failed step: "hash", "format" or "store". The chain cursor is never
// advanced when an AppendError is returned.
type AppendError struct {
	Op  string
	Err error
}

func (e *AppendError) Error() string { return fmt.Sprintf("append %s: %v", e.Op, e.Err) }

// Unwrap returns the underlying cause.
func (e *AppendError) Unwrap() error { return e.Err }

// Config controls chain construction and verification.
type Config struct {
	// Key is the pre-shared MAC secret. Required unless Hasher is set.
	// It is never written to the store.
	Key []byte
	// GenesisSeed is the previousHash of the first entry
	// (DefaultGenesisSeed when empty).
	GenesisSeed string
	// Formatter is the entry codec (DefaultFormatter when nil).
	Formatter Formatter
	// Hasher overrides the HMAC-SHA256 hasher built from Key.
	Hasher Hasher
	// Resume makes New continue an existing chain from the store's head
	// pointer instead of the genesis seed. Without it, appending to a
	// non-empty store forks the chain at genesis and verification fails.
	Resume bool
}

func (cfg Config) withDefaults() (Config, error) {
	if cfg.GenesisSeed == "" {
		cfg.GenesisSeed = DefaultGenesisSeed
	}
	if cfg.Formatter == nil {
		cfg.Formatter = DefaultFormatter{}
	}
	if cfg.Hasher == nil {
		h, err := NewHMACHasher(cfg.Key)
		if err != nil {
			return cfg, err
		}
		cfg.Hasher = h
	}
	return cfg, nil
}

// Appender extends a chain by exactly one entry per call. The chain cursor
// (previousHash) is shared mutable state; one chain has exactly one
// serialized writer, enforced by the internal mutex.
type Appender struct {
	mu       sync.Mutex
	hasher   Hasher
	codec    Formatter
	store    Store
	prevHash string
}

// New creates an Appender bound to a Store, positioned at the genesis seed.
func New(cfg Config, st Store) (*Appender, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	cursor := cfg.GenesisSeed
	if cfg.Resume {
		head, ok, err := st.Head()
		if err != nil {
			return nil, fmt.Errorf("resume from head: %w", err)
		}
		if ok {
			cursor = head
		}
	}
	return &Appender{
		hasher:   cfg.Hasher,
		codec:    cfg.Formatter,
		store:    st,
		prevHash: cursor,
	}, nil
}

// Append computes the next chain entry for msg, persists it together with
// the new head pointer, and advances the cursor. On failure the cursor is
// left untouched so the persisted state and the in-memory state never
// diverge.
func (a *Appender) Append(msg string, ts time.Time) (Entry, error) {
	return a.append(msg, ts, nil)
}

// AppendMeta is Append with contextual metadata for the codec. The
// metadata is covered by the MAC only if the codec folds it into the
// message field, which the bundled formatters do not.
func (a *Appender) AppendMeta(msg string, ts time.Time, meta map[string]string) (Entry, error) {
	return a.append(msg, ts, meta)
}

func (a *Appender) append(msg string, ts time.Time, meta map[string]string) (Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur, err := a.hasher.Sum(msg + a.prevHash)
	if err != nil {
		return Entry{}, &AppendError{Op: "hash", Err: err}
	}

	e := Entry{TS: ts, Msg: msg, CurrentHash: cur, PrevHash: a.prevHash, Meta: meta}
	line := a.codec.Format(e)
	if containsNewline(line) {
		return Entry{}, &AppendError{Op: "format", Err: fmt.Errorf("formatted line contains newline")}
	}

	if err := a.store.Append(line, cur); err != nil {
		return Entry{}, &AppendError{Op: "store", Err: err}
	}

	a.prevHash = cur
	return e, nil
}

// Head returns the current chain cursor (the genesis seed before the
// first append).
func (a *Appender) Head() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prevHash
}

func containsNewline(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			return true
		}
	}
	return false
}
