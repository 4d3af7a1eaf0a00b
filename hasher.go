package chainlog

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ErrEmptyKey is returned when a hasher is constructed without key material.
var ErrEmptyKey = errors.New("empty MAC key")

// Hasher computes the keyed tag that binds an entry to its predecessor.
// A plain (unkeyed) hash must never be used here: anyone able to read the
// store could then recompute a valid chain after editing it.
type Hasher interface {
	// Sum returns the text-encoded tag for data, or an error if the
	// primitive is unusable. Implementations must be deterministic.
	Sum(data string) (string, error)
}

type hmacHasher struct{ key []byte }

// NewHMACHasher returns a Hasher producing base64-encoded HMAC-SHA256 tags.
// The key is copied; callers may zero their copy afterwards.
func NewHMACHasher(key []byte) (Hasher, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &hmacHasher{key: append([]byte(nil), key...)}, nil
}

func (h *hmacHasher) Sum(data string) (string, error) {
	m := hmac.New(sha256.New, h.key)
	_, _ = m.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(m.Sum(nil)), nil
}

// tagEqual compares two text tags in constant time.
func tagEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
