// Package model defines the data structures shared across proxysort.
//
// This package contains the following main types:
//   - Message and Attachment: the raw text inputs of a scan
//   - Resolution: the typed result of resolving a link's host
//   - ScanRun: the ephemeral state of one scan
//   - ScanReport: the final, persisted result of a scan
//   - Progress: the per-link progress snapshot handed to reporters
//
// The models live in their own package because the extractor, the pipeline,
// the store and the report writers all exchange them.
package model
