package progress

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/proxysort/internal/model"
)

// TestRender tests progress text formatting.
func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    model.Progress
		want string
	}{
		{
			name: "no categories yet",
			p:    model.Progress{Done: 1, Total: 3},
			want: "Scanning... 33% (1/3)\n",
		},
		{
			name: "categories in first-seen order",
			p: model.Progress{
				Done:  2,
				Total: 5,
				Stats: []model.CategoryStat{
					{Name: "CatY", Initial: 0, Added: 1},
					{Name: "CatX", Initial: 3, Added: 2},
				},
			},
			want: "Scanning... 40% (2/5)\nCatY (0) +1\nCatX (3) +2\n",
		},
		{
			name: "empty run",
			p:    model.Progress{},
			want: "Scanning... 100% (0/0)\n",
		},
		{
			name: "complete",
			p:    model.Progress{Done: 7, Total: 7},
			want: "Scanning... 100% (7/7)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Render(tt.p); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestTerminalSink tests that updates erase the previous region.
func TestTerminalSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewTerminalSink(&buf)

	if err := s.Update("a\nb\n"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a\nb\n" {
		t.Fatalf("first update = %q", buf.String())
	}

	buf.Reset()
	if err := s.Update("c\n"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), "\x1b[1A\x1b[2K"); got != 2 {
		t.Errorf("erased %d lines, want 2", got)
	}
	if !strings.HasSuffix(buf.String(), "c\n") {
		t.Errorf("update output = %q", buf.String())
	}

	buf.Reset()
	if err := s.Done(CompleteMessage); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\x1b[1A\x1b[2K"+CompleteMessage+"\n" {
		t.Errorf("done output = %q", buf.String())
	}
}

// TestWriterSink tests plain appends.
func TestWriterSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	_ = s.Update("x\n")
	_ = s.Done("done")

	if buf.String() != "x\ndone\n" {
		t.Errorf("output = %q", buf.String())
	}
}

// TestLogSink tests that updates are logged.
func TestLogSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewLogSink(logger)
	_ = s.Update("Scanning... 50% (1/2)\n")
	_ = s.Done(CompleteMessage)

	out := buf.String()
	if !strings.Contains(out, "50%") || !strings.Contains(out, CompleteMessage) {
		t.Errorf("log output = %q", out)
	}
}

type failingSink struct{ updates int }

func (f *failingSink) Update(string) error { f.updates++; return errors.New("broken pipe") }
func (f *failingSink) Done(string) error   { return errors.New("broken pipe") }

// TestReporter tests that each report reaches the sink and sink errors are swallowed.
func TestReporter(t *testing.T) {
	t.Parallel()

	sink := &failingSink{}
	var logBuf bytes.Buffer
	r := NewReporter(sink, slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	r.Report(model.Progress{Done: 1, Total: 2})
	r.Report(model.Progress{Done: 2, Total: 2})
	r.Complete()

	if sink.updates != 2 || r.events != 2 {
		t.Errorf("updates = %d, events = %d; want 2", sink.updates, r.events)
	}
	if !strings.Contains(logBuf.String(), "failed to update progress") {
		t.Errorf("expected warning in log, got %q", logBuf.String())
	}
	if !strings.Contains(logBuf.String(), "updates=2") {
		t.Errorf("expected update count in log, got %q", logBuf.String())
	}
}

// TestNewSink tests sink selection.
func TestNewSink(t *testing.T) {
	t.Parallel()

	if _, ok := NewSink(ModeNone, nil, nil).(NopSink); !ok {
		t.Error("none mode should discard progress")
	}
	if _, ok := NewSink(ModeLog, nil, nil).(*LogSink); !ok {
		t.Error("log mode should log progress")
	}
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
}
