// Package resolve maps the host of a link to a single IP address.
//
// Lookups go through the system resolver, or through a specific DNS server
// when one is configured. A Resolver caches answers per host for its
// lifetime, collapses concurrent lookups of the same host into one query,
// and can be throttled to a fixed query rate. Failures are never returned as
// errors: they come back as a Resolution with OutcomeResolutionFailed so the
// caller can skip the link and move on.
package resolve
