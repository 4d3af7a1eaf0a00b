package chainlog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IssueKind classifies one verification anomaly.
type IssueKind int

// Issue kinds, from environment failures to chain anomalies.
const (
	// IssueSystemError: the store or head pointer was unusable;
	// verification did not proceed.
	IssueSystemError IssueKind = iota
	// IssueParseError: a line did not decode into the expected fields.
	IssueParseError
	// IssuePrevHashMismatch: chain discontinuity (deletion, insertion or
	// reordering).
	IssuePrevHashMismatch
	// IssueCurrentHashMismatch: the stored tag does not match the
	// recomputed one (content tamper).
	IssueCurrentHashMismatch
	// IssueHashCalcError: the cryptographic primitive failed.
	IssueHashCalcError
	// IssueTailTruncation: the head pointer references an entry no longer
	// present (rollback of the most recent entries).
	IssueTailTruncation
)

var issueKindNames = map[IssueKind]string{
	IssueSystemError:         "SYSTEM_ERROR",
	IssueParseError:          "PARSE_ERROR",
	IssuePrevHashMismatch:    "PREV_HASH_MISMATCH",
	IssueCurrentHashMismatch: "CURRENT_HASH_MISMATCH",
	IssueHashCalcError:       "HASH_CALC_ERROR",
	IssueTailTruncation:      "TAIL_TRUNCATION",
}

func (k IssueKind) String() string {
	if s, ok := issueKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("IssueKind(%d)", int(k))
}

// MarshalJSON encodes the kind as its name.
func (k IssueKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its name.
func (k *IssueKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for kind, name := range issueKindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown issue kind %q", s)
}

// Issue is one classified anomaly. Cascade marks anomalies found after the
// chain's first detected break: presumed consequences of it, not proven
// independent findings.
type Issue struct {
	Line     int       `json:"line"`
	Kind     IssueKind `json:"kind"`
	Reason   string    `json:"reason"`
	Expected string    `json:"expected,omitempty"`
	Actual   string    `json:"actual,omitempty"`
	RawLine  string    `json:"raw_line,omitempty"`
	Cascade  bool      `json:"cascade"`
}

func (is Issue) String() string {
	var b strings.Builder
	origin := "root"
	if is.Cascade {
		origin = "cascade"
	}
	fmt.Fprintf(&b, "[line %d] %s (%s) - %s", is.Line, is.Kind, origin, is.Reason)
	if is.Expected != "" {
		fmt.Fprintf(&b, " | expected=%s", is.Expected)
	}
	if is.Actual != "" {
		fmt.Fprintf(&b, " | actual=%s", is.Actual)
	}
	if is.RawLine != "" {
		fmt.Fprintf(&b, " | raw=%s", is.RawLine)
	}
	return b.String()
}

// Report is the outcome of one verification run. It is deterministic for a
// given store+head snapshot: re-running on an unmodified store yields an
// identical report.
type Report struct {
	Valid          bool    `json:"valid"`
	ProcessedLines int     `json:"processed_lines"`
	Issues         []Issue `json:"issues,omitempty"`
}

func (r Report) String() string {
	if r.Valid {
		return fmt.Sprintf("OK (processedLines=%d)", r.ProcessedLines)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FAIL (processedLines=%d)\n", r.ProcessedLines)
	for _, is := range r.Issues {
		b.WriteString(is.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func systemErrorReport(reason string) Report {
	return Report{
		Valid:          false,
		ProcessedLines: 0,
		Issues: []Issue{{
			Line:   0,
			Kind:   IssueSystemError,
			Reason: reason,
		}},
	}
}

func parseError(line int, err error, raw string, cascade bool) Issue {
	return Issue{
		Line:    line,
		Kind:    IssueParseError,
		Reason:  fmt.Sprintf("line does not parse: %v", err),
		RawLine: raw,
		Cascade: cascade,
	}
}

func prevHashMismatch(line int, expected, actual, raw string, cascade bool) Issue {
	return Issue{
		Line:     line,
		Kind:     IssuePrevHashMismatch,
		Reason:   "previousHash does not continue the chain",
		Expected: expected,
		Actual:   actual,
		RawLine:  raw,
		Cascade:  cascade,
	}
}

func currentHashMismatch(line int, expected, actual, raw string, cascade bool) Issue {
	return Issue{
		Line:     line,
		Kind:     IssueCurrentHashMismatch,
		Reason:   "currentHash does not match recomputed tag",
		Expected: expected,
		Actual:   actual,
		RawLine:  raw,
		Cascade:  cascade,
	}
}

func hashCalcError(line int, err error, raw string, cascade bool) Issue {
	return Issue{
		Line:    line,
		Kind:    IssueHashCalcError,
		Reason:  fmt.Sprintf("tag recomputation failed: %v", err),
		RawLine: raw,
		Cascade: cascade,
	}
}

func tailTruncation(line int, expected, actual string) Issue {
	return Issue{
		Line:     line,
		Kind:     IssueTailTruncation,
		Reason:   "head pointer references an entry missing from the store",
		Expected: expected,
		Actual:   actual,
		Cascade:  false,
	}
}
