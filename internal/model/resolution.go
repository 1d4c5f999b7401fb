package model

// Resolution is the result of resolving the host of one link.
type Resolution struct {
	// URL is the normalized link that was resolved.
	URL string

	// Host is the host component extracted from URL.
	Host string

	// IP is the resolved address. Empty unless Outcome is OutcomeOK.
	IP string

	// Outcome is OutcomeOK or OutcomeResolutionFailed.
	Outcome Outcome

	// Err is the underlying lookup error when resolution failed.
	Err error
}

// OK reports whether the resolution produced an address.
func (r Resolution) OK() bool {
	return r.Outcome == OutcomeOK && r.IP != ""
}
