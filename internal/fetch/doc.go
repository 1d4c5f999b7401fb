// Package fetch turns attachment locations into model.Attachment descriptors.
//
// A location is either a local file path or an http(s) URL. Remote
// attachments are downloaded with a size cap, optionally through a SOCKS5
// proxy, and each remote host sits behind its own circuit breaker: after a
// few consecutive failures the host is skipped for the rest of the scan
// instead of timing out on every attachment.
package fetch
