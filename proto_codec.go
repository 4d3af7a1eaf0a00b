package chainlog

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Protobuf wire schema for verification reports, encoded directly with
// protowire so the report surface stays language-agnostic:
//
//	message Issue {
//	  int64  line      = 1;
//	  int32  kind      = 2;   // IssueKind ordinal
//	  string reason    = 3;
//	  string expected  = 4;
//	  string actual    = 5;
//	  string raw_line  = 6;
//	  bool   cascade   = 7;
//	}
//	message Report {
//	  bool   valid           = 1;
//	  int64  processed_lines = 2;
//	  repeated Issue issues  = 3;
//	}

const (
	issueLineField = iota + 1
	issueKindField
	issueReasonField
	issueExpectedField
	issueActualField
	issueRawLineField
	issueCascadeField
)

const (
	reportValidField = iota + 1
	reportProcessedField
	reportIssuesField
)

// MarshalReport encodes a Report into protobuf wire format.
func MarshalReport(r Report) []byte {
	var b []byte
	b = protowire.AppendTag(b, reportValidField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(r.Valid))
	b = protowire.AppendTag(b, reportProcessedField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.ProcessedLines))
	for _, is := range r.Issues {
		b = protowire.AppendTag(b, reportIssuesField, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalIssue(is))
	}
	return b
}

func marshalIssue(is Issue) []byte {
	var b []byte
	b = protowire.AppendTag(b, issueLineField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(is.Line))
	b = protowire.AppendTag(b, issueKindField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(is.Kind))
	if is.Reason != "" {
		b = protowire.AppendTag(b, issueReasonField, protowire.BytesType)
		b = protowire.AppendString(b, is.Reason)
	}
	if is.Expected != "" {
		b = protowire.AppendTag(b, issueExpectedField, protowire.BytesType)
		b = protowire.AppendString(b, is.Expected)
	}
	if is.Actual != "" {
		b = protowire.AppendTag(b, issueActualField, protowire.BytesType)
		b = protowire.AppendString(b, is.Actual)
	}
	if is.RawLine != "" {
		b = protowire.AppendTag(b, issueRawLineField, protowire.BytesType)
		b = protowire.AppendString(b, is.RawLine)
	}
	b = protowire.AppendTag(b, issueCascadeField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(is.Cascade))
	return b
}

// UnmarshalReport decodes a Report from protobuf wire format. Unknown
// fields are skipped for forward compatibility.
func UnmarshalReport(data []byte) (Report, error) {
	var r Report
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return r, protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == reportValidField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			r.Valid = protowire.DecodeBool(v)
			data = data[n:]
		case num == reportProcessedField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			r.ProcessedLines = int(v)
			data = data[n:]
		case num == reportIssuesField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			is, err := unmarshalIssue(v)
			if err != nil {
				return r, fmt.Errorf("issue %d: %w", len(r.Issues), err)
			}
			r.Issues = append(r.Issues, is)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return r, nil
}

func unmarshalIssue(data []byte) (Issue, error) {
	var is Issue
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return is, protowire.ParseError(n)
		}
		data = data[n:]

		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return is, protowire.ParseError(n)
			}
			data = data[n:]
			switch num {
			case issueLineField:
				is.Line = int(v)
			case issueKindField:
				is.Kind = IssueKind(v)
			case issueCascadeField:
				is.Cascade = protowire.DecodeBool(v)
			}
			continue
		}

		if typ == protowire.BytesType {
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return is, protowire.ParseError(n)
			}
			data = data[n:]
			switch num {
			case issueReasonField:
				is.Reason = v
			case issueExpectedField:
				is.Expected = v
			case issueActualField:
				is.Actual = v
			case issueRawLineField:
				is.RawLine = v
			}
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return is, protowire.ParseError(n)
		}
		data = data[n:]
	}
	return is, nil
}
