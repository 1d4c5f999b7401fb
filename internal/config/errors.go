package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use errors.Is()
// for programmatic handling while still printing a readable message.
var (
	// ErrNoInput is returned when a scan has no message source at all:
	// no files, no --text values, no attachments and no --stdin.
	ErrNoInput = errors.New("no input specified: provide message files, --text, --attach or --stdin")

	// ErrInvalidConcurrency is returned when the resolver concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidDNSTimeout is returned when the per-lookup DNS timeout is not positive.
	ErrInvalidDNSTimeout = errors.New("invalid dns timeout: must be positive")

	// ErrInvalidQPS is returned when the DNS query rate is negative.
	// Zero disables rate limiting.
	ErrInvalidQPS = errors.New("invalid dns query rate: must be non-negative")

	// ErrInvalidFetchTimeout is returned when the attachment fetch timeout is not positive.
	ErrInvalidFetchTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidMaxAttachmentSize is returned when the attachment size limit is negative.
	ErrInvalidMaxAttachmentSize = errors.New("invalid max attachment size: must be non-negative")

	// ErrInvalidMessageLimit is returned when the message limit is negative.
	// Zero means all messages are scanned.
	ErrInvalidMessageLimit = errors.New("invalid message limit: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProgressMode is returned for an unknown --progress value.
	ErrInvalidProgressMode = errors.New("invalid progress mode: must be one of auto, terminal, log, none")

	// ErrEmptyDataDir is returned when no data directory could be determined.
	ErrEmptyDataDir = errors.New("data directory must not be empty")
)
