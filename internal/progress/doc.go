// Package progress renders scan progress and delivers it to a sink.
//
// The scan pipeline reports a model.Progress snapshot once per processed
// link. Render turns a snapshot into the text shown to the user; a Sink
// decides where that text goes: a terminal region redrawn in place, the
// log, or a plain writer.
package progress
