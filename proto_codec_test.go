package chainlog

import (
	"reflect"
	"testing"
)

func TestReportWireCodec_RoundTrip(t *testing.T) {
	in := Report{
		Valid:          false,
		ProcessedLines: 7,
		Issues: []Issue{
			{
				Line:     3,
				Kind:     IssueCurrentHashMismatch,
				Reason:   "currentHash does not match recomputed tag",
				Expected: "aaa",
				Actual:   "bbb",
				RawLine:  "3 | msg | bbb | prev",
				Cascade:  false,
			},
			{
				Line:    4,
				Kind:    IssuePrevHashMismatch,
				Reason:  "previousHash does not continue the chain",
				Cascade: true,
			},
		},
	}

	out, err := UnmarshalReport(MarshalReport(in))
	if err != nil {
		t.Fatalf("UnmarshalReport failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in: %#v\nout: %#v", in, out)
	}
}

func TestReportWireCodec_ValidReport(t *testing.T) {
	in := Report{Valid: true, ProcessedLines: 42}
	out, err := UnmarshalReport(MarshalReport(in))
	if err != nil {
		t.Fatal(err)
	}
	if !out.Valid || out.ProcessedLines != 42 || len(out.Issues) != 0 {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestReportWireCodec_TruncatedInput(t *testing.T) {
	data := MarshalReport(Report{Valid: true, ProcessedLines: 1})
	if _, err := UnmarshalReport(data[:len(data)-1]); err == nil {
		t.Fatal("truncated input decoded without error")
	}
}
