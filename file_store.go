package chainlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// fileStore implements Store using POSIX files with append-only semantics.
// Layout:
//   - chain.log: main log file, one entry per line
//   - head.dat: head pointer, overwritten on every append
//
// The two files are written in sequence, not atomically; a crash between
// the line append and the head overwrite leaves the head one entry behind,
// which the verifier reports as a benign TAIL_TRUNCATION on the next run.
type fileStore struct {
	dir      string
	logFile  *os.File
	headFile *os.File
	mu       sync.RWMutex
}

const (
	chainFileName = "chain.log"
	headFileName  = "head.dat"
)

// OpenFileStore creates or opens a file-based store in the given directory.
func OpenFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	logPath := filepath.Join(dir, chainFileName)
	logFile, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}

	headPath := filepath.Join(dir, headFileName)
	headFile, err := os.OpenFile(headPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("open head file: %w", err)
	}

	return &fileStore{dir: dir, logFile: logFile, headFile: headFile}, nil
}

// Append writes one line to the chain file, syncs it, then overwrites the
// head pointer.
func (s *fileStore) Append(line, head string) error {
	if containsNewline(line) {
		return errors.New("line contains newline")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := syscall.Flock(int(s.logFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock chain file: %w", err)
	}
	defer syscall.Flock(int(s.logFile.Fd()), syscall.LOCK_UN)

	if _, err := s.logFile.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if err := s.logFile.Sync(); err != nil {
		return fmt.Errorf("sync chain file: %w", err)
	}

	return s.writeHeadLocked(head)
}

func (s *fileStore) writeHeadLocked(head string) error {
	if err := s.headFile.Truncate(0); err != nil {
		return fmt.Errorf("truncate head file: %w", err)
	}
	if _, err := s.headFile.Seek(0, 0); err != nil {
		return fmt.Errorf("seek head file: %w", err)
	}
	if _, err := s.headFile.WriteString(head + "\n"); err != nil {
		return fmt.Errorf("write head: %w", err)
	}
	if err := s.headFile.Sync(); err != nil {
		return fmt.Errorf("sync head file: %w", err)
	}
	return nil
}

// Iter streams the physical lines of chain.log in order.
func (s *fileStore) Iter() (<-chan string, func() error, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logPath := filepath.Join(s.dir, chainFileName)
	file, err := os.Open(logPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open chain file for reading: %w", err)
	}

	out := make(chan string, 64)
	done := make(chan struct{})
	scanErr := make(chan error, 1)

	go func() {
		defer close(out)
		defer file.Close()

		sc := bufio.NewScanner(file)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			select {
			case <-done:
				scanErr <- nil
				return
			case out <- sc.Text():
			}
		}
		// Scan returns false on both EOF and failure; only Err tells
		// them apart.
		scanErr <- sc.Err()
	}()

	cleanup := func() error {
		close(done)
		return <-scanErr
	}
	return out, cleanup, nil
}

// Head reads the current head pointer. A missing or empty head file is the
// valid "no head recorded" state.
func (s *fileStore) Head() (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readHeadFile(filepath.Join(s.dir, headFileName))
}

// Close closes the underlying files.
func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.logFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chain file: %w", err))
	}
	if err := s.headFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close head file: %w", err))
	}
	return errors.Join(errs...)
}
