// Package pipeline runs a scan as a sequence of steps over a model.ScanRun.
//
// The default scan pipeline has four steps:
//   - extract: collect and normalize links from messages and attachments
//   - classify: resolve each link and file it under a category or an IP
//   - persist_unknown: merge links at untracked IPs into the Unknown Bucket
//   - report: build, save and deliver the scan report
//
// Resolution runs ahead of classification with bounded concurrency, but
// links are classified strictly in order, and progress is reported exactly
// once per link whether or not it resolved.
package pipeline
