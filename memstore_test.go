package chainlog

import (
	"errors"
	"sync"
)

// memStore is an in-memory Store used by tests; tests mutate lines and
// head directly to simulate tampering.
type memStore struct {
	mu        sync.Mutex
	lines     []string
	head      string
	appendErr error
	iterErr   error
	scanErr   error
	headErr   error
}

func (m *memStore) Append(line, head string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	if containsNewline(line) {
		return errors.New("line contains newline")
	}
	m.lines = append(m.lines, line)
	m.head = head
	return nil
}

func (m *memStore) Iter() (<-chan string, func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.iterErr != nil {
		return nil, nil, m.iterErr
	}
	snapshot := append([]string(nil), m.lines...)
	out := make(chan string, len(snapshot)+1)
	for _, l := range snapshot {
		out <- l
	}
	close(out)
	return out, func() error { return m.scanErr }, nil
}

func (m *memStore) Head() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.headErr != nil {
		return "", false, m.headErr
	}
	return m.head, m.head != "", nil
}

func (m *memStore) Close() error { return nil }
