package domain

import "errors"

// Domain errors represent error conditions in the sbsship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("sbsship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("sbsship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("sbsship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("sbsship: invalid configuration")
)

// Parse failures classify why a feed line did not produce a Message.
// All of them are non-fatal: the line is skipped and counted.
var (
	// ErrNotAnEvent marks lines whose record keyword is not "MSG"
	// (blank lines, STA/AIR/SEL lines, noise). Skipped silently.
	ErrNotAnEvent = errors.New("sbsship: not an event line")

	// ErrUnknownKind marks MSG lines with a transmission type outside
	// the range the protocol defines.
	ErrUnknownKind = errors.New("sbsship: unknown transmission type")

	// ErrTruncated marks MSG lines with fewer fields than the minimum
	// required for their declared transmission type.
	ErrTruncated = errors.New("sbsship: truncated event line")

	// ErrMissingIdent marks MSG lines whose aircraft hex ident is empty.
	ErrMissingIdent = errors.New("sbsship: missing aircraft identifier")

	// ErrMalformedField marks a non-empty field slot that failed conversion.
	// Only surfaced when strict field parsing is enabled; the default policy
	// treats the field as absent and keeps the record.
	ErrMalformedField = errors.New("sbsship: malformed field")
)

// Delivery failures classify terminal send outcomes.
var (
	// ErrPermanentlyRejected is returned when the sink rejects a batch with a
	// 4xx status. The batch cannot succeed on retry and is dropped.
	ErrPermanentlyRejected = errors.New("sbsship: batch permanently rejected")

	// ErrRetriesExhausted is returned when transient failures persist past
	// the retry budget. The batch is dropped.
	ErrRetriesExhausted = errors.New("sbsship: delivery retries exhausted")
)
