package chainlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Entry is one chain position as handed to the codec. Msg, CurrentHash and
// PrevHash are the three logical fields every formatter must round-trip;
// TS and Meta are contextual and a formatter may interleave or drop them.
// Metadata participates in the MAC only if the caller folds it into Msg.
type Entry struct {
	TS          time.Time
	Msg         string
	CurrentHash string
	PrevHash    string
	Meta        map[string]string
}

// Formatter is the pluggable wire codec for a single store line. The chain
// logic never encodes or decodes text itself; both Appender and Verifier
// depend only on this capability.
type Formatter interface {
	// Format serializes an entry to one physical line (no newline).
	Format(e Entry) string
	// Parse splits a raw line into fields, or fails if the line does not
	// decode into the expected shape.
	Parse(raw string) ([]string, error)
	// Message, CurrentHash and PrevHash extract the logical fields from a
	// parsed line.
	Message(fields []string) string
	CurrentHash(fields []string) string
	PrevHash(fields []string) string
}

const fieldDelim = " | "

// DefaultFormatter encodes entries as
//
//	unixNano | message | currentHash | previousHash
//
// The delimiter is " | "; messages containing it will not survive Parse.
type DefaultFormatter struct{}

// Format implements Formatter.
func (DefaultFormatter) Format(e Entry) string {
	return fmt.Sprintf("%d%s%s%s%s%s%s",
		e.TS.UnixNano(), fieldDelim, e.Msg, fieldDelim, e.CurrentHash, fieldDelim, e.PrevHash)
}

// Parse implements Formatter.
func (DefaultFormatter) Parse(raw string) ([]string, error) {
	parts := splitFields(raw, 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("want 4 fields, got %d", len(parts))
	}
	if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
		return nil, fmt.Errorf("timestamp %q is not numeric", parts[0])
	}
	for i, name := range []string{"", "message", "currentHash", "previousHash"} {
		if i > 0 && parts[i] == "" {
			return nil, fmt.Errorf("%s field is empty", name)
		}
	}
	return parts, nil
}

// Message implements Formatter.
func (DefaultFormatter) Message(fields []string) string { return fields[1] }

// CurrentHash implements Formatter.
func (DefaultFormatter) CurrentHash(fields []string) string { return fields[2] }

// PrevHash implements Formatter.
func (DefaultFormatter) PrevHash(fields []string) string { return fields[3] }

// AuditFormatter encodes entries with contextual actor/origin metadata:
//
//	time | actor | origin | message | currentHash | previousHash
//
// Actor and origin come from Meta["actor"] / Meta["origin"], defaulting to
// SYSTEM and N/A. Neither is covered by the MAC unless the caller folds
// them into the message.
type AuditFormatter struct {
	// TimeLayout overrides the timestamp layout (default "2006-01-02 15:04:05").
	TimeLayout string
}

func (f AuditFormatter) layout() string {
	if f.TimeLayout == "" {
		return "2006-01-02 15:04:05"
	}
	return f.TimeLayout
}

// Format implements Formatter.
func (f AuditFormatter) Format(e Entry) string {
	actor, origin := "SYSTEM", "N/A"
	if v, ok := e.Meta["actor"]; ok && v != "" {
		actor = v
	}
	if v, ok := e.Meta["origin"]; ok && v != "" {
		origin = v
	}
	return strings.Join([]string{
		e.TS.Format(f.layout()), actor, origin, e.Msg, e.CurrentHash, e.PrevHash,
	}, fieldDelim)
}

// Parse implements Formatter.
func (f AuditFormatter) Parse(raw string) ([]string, error) {
	parts := splitFields(raw, 6)
	if len(parts) != 6 {
		return nil, fmt.Errorf("want 6 fields, got %d", len(parts))
	}
	if _, err := time.Parse(f.layout(), parts[0]); err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", parts[0], err)
	}
	for i, name := range []string{"", "", "", "message", "currentHash", "previousHash"} {
		if name != "" && parts[i] == "" {
			return nil, fmt.Errorf("%s field is empty", name)
		}
	}
	return parts, nil
}

// Message implements Formatter.
func (AuditFormatter) Message(fields []string) string { return fields[3] }

// CurrentHash implements Formatter.
func (AuditFormatter) CurrentHash(fields []string) string { return fields[4] }

// PrevHash implements Formatter.
func (AuditFormatter) PrevHash(fields []string) string { return fields[5] }

func splitFields(raw string, n int) []string {
	parts := strings.SplitN(raw, fieldDelim, n)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
