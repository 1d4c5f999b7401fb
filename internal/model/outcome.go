package model

import "fmt"

// Outcome is the typed result of processing a single input item.
// The extractor and resolver never swallow failures; they report one of
// these values and the pipeline applies the skip policy.
type Outcome int

const (
	// OutcomeOK means the item was processed successfully.
	OutcomeOK Outcome = iota

	// OutcomeResolutionFailed means the link's host could not be resolved.
	// The link is excluded from the run: neither categorized nor unknown.
	OutcomeResolutionFailed

	// OutcomeFetchFailed means an attachment could not be fetched or decoded.
	// The attachment contributes no links.
	OutcomeFetchFailed

	// OutcomeSkipped means the item was intentionally not processed,
	// e.g. an attachment that is not a .txt file.
	OutcomeSkipped
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeResolutionFailed:
		return "resolution_failed"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so outcomes serialize by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ok":
		*o = OutcomeOK
	case "resolution_failed":
		*o = OutcomeResolutionFailed
	case "fetch_failed":
		*o = OutcomeFetchFailed
	case "skipped":
		*o = OutcomeSkipped
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}
