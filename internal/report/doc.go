// Package report renders the result of a scan run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the plain-text layout that is also saved with each run
//   - MarkdownWriter: a Markdown summary with tables and per-category lists
//   - JSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
