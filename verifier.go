package chainlog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Verifier re-derives and cross-checks every entry of a persisted chain in
// a single forward pass. It never aborts on the first anomaly: a full scan
// classifies every downstream effect in one run.
type Verifier struct {
	hasher  Hasher
	codec   Formatter
	genesis string
}

// NewVerifier creates a Verifier. The Config must match the deployment
// that produced the chain (same key, genesis seed and codec).
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Verifier{hasher: cfg.Hasher, codec: cfg.Formatter, genesis: cfg.GenesisSeed}, nil
}

// Verify scans st end to end and reports every anomaly. Only an unusable
// store or head pointer short-circuits, with a single SYSTEM_ERROR issue;
// data-level anomalies always accumulate into the report.
func (v *Verifier) Verify(st Store) Report {
	head, hasHead, err := st.Head()
	if err != nil {
		return systemErrorReport(fmt.Sprintf("read head pointer: %v", err))
	}
	lines, done, err := st.Iter()
	if err != nil {
		return systemErrorReport(fmt.Sprintf("open store: %v", err))
	}
	rep := v.scan(lines, head, hasHead)
	// The iterator reports read failures only after the stream ends; a
	// partially read store must not pass as a short but valid chain.
	if err := done(); err != nil {
		return systemErrorReport(fmt.Sprintf("read store: %v", err))
	}
	return rep
}

// VerifyFile scans a line-oriented log file directly. headPath names the
// separately persisted head pointer; empty means "no head recorded", which
// suppresses the truncation check.
func (v *Verifier) VerifyFile(logPath, headPath string) Report {
	head, hasHead, err := readHeadFile(headPath)
	if err != nil {
		return systemErrorReport(fmt.Sprintf("read head pointer %s: %v", headPath, err))
	}

	f, err := os.Open(logPath)
	if err != nil {
		return systemErrorReport(fmt.Sprintf("open store %s: %v", logPath, err))
	}
	defer f.Close()

	lines := make(chan string, 64)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			lines <- sc.Text()
		}
		scanErr <- sc.Err()
	}()
	rep := v.scan(lines, head, hasHead)
	if err := <-scanErr; err != nil {
		return systemErrorReport(fmt.Sprintf("read store %s: %v", logPath, err))
	}
	return rep
}

const maxLineBytes = 1 << 20

// scan is the verifier state machine: (expectedPrevHash, chainBroken,
// processed), monotonically advancing, terminal on end of input.
func (v *Verifier) scan(lines <-chan string, head string, hasHead bool) Report {
	expectedPrev := v.genesis
	chainBroken := false
	processed := 0
	totalLines := 0
	var issues []Issue
	lastObserved := ""
	observedAny := false

	for raw := range lines {
		totalLines++
		lineNo := totalLines

		if strings.TrimSpace(raw) == "" {
			continue
		}

		fields, err := v.codec.Parse(raw)
		if err != nil {
			issues = append(issues, parseError(lineNo, err, raw, chainBroken))
			chainBroken = true
			// expectedPrev does not advance: the line contributed nothing
			// the chain can continue from.
			continue
		}

		msg := v.codec.Message(fields)
		cur := v.codec.CurrentHash(fields)
		prev := v.codec.PrevHash(fields)
		lastObserved, observedAny = cur, true

		if !tagEqual(prev, expectedPrev) {
			issues = append(issues, prevHashMismatch(lineNo, expectedPrev, prev, raw, chainBroken))
			chainBroken = true
		}

		recomputed, err := v.hasher.Sum(msg + prev)
		if err != nil {
			issues = append(issues, hashCalcError(lineNo, err, raw, chainBroken))
			chainBroken = true
		} else if !tagEqual(recomputed, cur) {
			issues = append(issues, currentHashMismatch(lineNo, recomputed, cur, raw, chainBroken))
			chainBroken = true
		}

		// Advance against the file's own declared hash, not the recomputed
		// one, so the rest of the file is still checked for
		// self-consistency as written.
		expectedPrev = cur
		processed++
	}

	// Tail truncation is independent of mid-chain breaks: it compares the
	// separately stored head pointer against the last entry physically
	// present, so it is never marked as a cascade.
	if hasHead && head != "" {
		if !observedAny || !tagEqual(head, lastObserved) {
			line := totalLines
			if line < 1 {
				line = 1
			}
			issues = append(issues, tailTruncation(line, head, lastObserved))
		}
	}

	return Report{Valid: len(issues) == 0, ProcessedLines: processed, Issues: issues}
}

func readHeadFile(path string) (head string, ok bool, err error) {
	if path == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	head = strings.TrimSpace(string(data))
	return head, head != "", nil
}
