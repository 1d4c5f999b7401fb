package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Sink receives rendered progress text.
type Sink interface {
	// Update replaces the currently shown progress.
	Update(text string) error

	// Done shows the final message. No Update follows.
	Done(text string) error
}

// TerminalSink redraws progress in place on a terminal.
type TerminalSink struct {
	mu    sync.Mutex
	w     io.Writer
	lines int
}

// NewTerminalSink creates a sink that redraws on w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

// Update erases the previously drawn text and draws text.
func (s *TerminalSink) Update(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redraw(text)
}

// Done replaces the progress with text.
func (s *TerminalSink) Done(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return s.redraw(text)
}

func (s *TerminalSink) redraw(text string) error {
	var b strings.Builder
	for range s.lines {
		// cursor up one line, clear it
		b.WriteString("\x1b[1A\x1b[2K")
	}
	b.WriteString(text)
	if _, err := io.WriteString(s.w, b.String()); err != nil {
		return fmt.Errorf("failed to draw progress: %w", err)
	}
	s.lines = strings.Count(text, "\n")
	return nil
}

// WriterSink appends every update to a writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink that appends to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Update writes text.
func (s *WriterSink) Update(text string) error {
	return s.write(text)
}

// Done writes text followed by a newline.
func (s *WriterSink) Done(text string) error {
	return s.write(strings.TrimRight(text, "\n") + "\n")
}

func (s *WriterSink) write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, text); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	return nil
}

// LogSink logs every update at Info level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Update logs text.
func (s *LogSink) Update(text string) error {
	s.logger.Info("scan progress", "progress", strings.TrimRight(text, "\n"))
	return nil
}

// Done logs the final message.
func (s *LogSink) Done(text string) error {
	s.logger.Info(strings.TrimRight(text, "\n"))
	return nil
}

// NopSink discards progress.
type NopSink struct{}

// Update does nothing.
func (NopSink) Update(string) error { return nil }

// Done does nothing.
func (NopSink) Done(string) error { return nil }

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// Mode names accepted by NewSink.
const (
	ModeAuto     = "auto"
	ModeTerminal = "terminal"
	ModeLog      = "log"
	ModeNone     = "none"
)

// NewSink selects a sink for mode. In auto mode progress is redrawn in place
// when f is a terminal and written line by line otherwise.
func NewSink(mode string, f *os.File, logger *slog.Logger) Sink {
	switch mode {
	case ModeTerminal:
		return NewTerminalSink(f)
	case ModeLog:
		return NewLogSink(logger)
	case ModeNone:
		return NopSink{}
	default:
		if IsTerminal(f) {
			return NewTerminalSink(f)
		}
		return NewWriterSink(f)
	}
}
