// Package extract finds URLs in message text and attachment content and
// normalizes them into the canonical form used as the storage key.
//
// Every match is rewritten to https:// with the http scheme and a leading
// "www." removed, and the first explicit port that ends the host part is
// stripped. Links found inside attachments are reduced further to the bare
// host, so one attachment listing many paths of the same service collapses
// to a single link.
package extract
