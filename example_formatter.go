package chainlog

// Example: Pluggable Entry Formats
//
// The chain logic never touches text encoding. A Formatter owns the whole
// line: how the three logical fields (message, currentHash, previousHash)
// are laid out, and what contextual metadata rides along.
//
// DefaultFormatter produces:
//
//	1724489400000000000 | user login: alice | gvSxhW2L... | INIT_SEED_0000
//
// AuditFormatter adds actor/origin metadata in the manner of MDC-style
// audit trails:
//
//	2026-08-24 10:30:00 | alice | 10.0.0.7 | user login | gvSxhW2L... | INIT_SEED_0000
//
//	app.AppendMeta("user login", time.Now(), map[string]string{
//	        "actor":  "alice",
//	        "origin": "10.0.0.7",
//	})
//
// Only the message and the previous hash enter the MAC. Metadata outside
// the message field is NOT tamper-evident; fold anything that must be
// protected into the message before appending:
//
//	msg := fmt.Sprintf("actor=%s origin=%s %s", actor, origin, action)
//	app.Append(msg, time.Now())
//
// Custom formats implement the five-method Formatter interface. Both ends
// of a deployment must agree on the formatter, the secret key, and the
// genesis seed; a verifier with a different codec reports every line as
// PARSE_ERROR rather than guessing.
//
// Caveat shared with the original pipe-delimited format: a message
// containing the " | " delimiter will not survive Parse. Use a custom
// Formatter with escaping (or a structured encoding such as JSON lines)
// if messages are not under your control.
