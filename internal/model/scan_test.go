package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestProgressPercent tests percentage calculation including the empty run.
func TestProgressPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		done  int
		total int
		want  int
	}{
		{name: "nothing done", done: 0, total: 3, want: 0},
		{name: "one of three floors to 33", done: 1, total: 3, want: 33},
		{name: "two of three floors to 66", done: 2, total: 3, want: 66},
		{name: "all done", done: 3, total: 3, want: 100},
		{name: "empty run does not divide by zero", done: 0, total: 0, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := Progress{Done: tt.done, Total: tt.total}
			if got := p.Percent(); got != tt.want {
				t.Errorf("Percent() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestGroupList tests first-seen ordering of groups.
func TestGroupList(t *testing.T) {
	t.Parallel()

	t.Run("zero value is usable", func(t *testing.T) {
		t.Parallel()

		var g GroupList
		if g.Len() != 0 {
			t.Errorf("expected 0 groups, got %d", g.Len())
		}
		if got := g.Groups(); len(got) != 0 {
			t.Errorf("expected no groups, got %v", got)
		}
	})

	t.Run("preserves first-seen key order", func(t *testing.T) {
		t.Parallel()

		var g GroupList
		g.Add("Beta", "https://b1.com")
		g.Add("Alpha", "https://a1.com")
		g.Add("Beta", "https://b2.com")

		want := []LinkGroup{
			{Key: "Beta", Links: []string{"https://b1.com", "https://b2.com"}},
			{Key: "Alpha", Links: []string{"https://a1.com"}},
		}
		if diff := cmp.Diff(want, g.Groups()); diff != "" {
			t.Errorf("groups mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Groups returns a copy", func(t *testing.T) {
		t.Parallel()

		var g GroupList
		g.Add("k", "https://x.com")
		groups := g.Groups()
		groups[0].Links[0] = "mutated"

		if g.Groups()[0].Links[0] != "https://x.com" {
			t.Error("mutating the returned groups changed the list")
		}
	})
}

// TestScanRunStats tests per-category accounting.
func TestScanRunStats(t *testing.T) {
	t.Parallel()

	run := NewScanRun("run-1", nil)

	if run.HasStat("CatX") {
		t.Fatal("expected no stat before first add")
	}

	run.RecordAdded("CatX", 4)
	run.RecordAdded("CatY", 0)
	run.RecordAdded("CatX", 99) // initial ignored after first occurrence

	want := []CategoryStat{
		{Name: "CatX", Initial: 4, Added: 2},
		{Name: "CatY", Initial: 0, Added: 1},
	}
	if diff := cmp.Diff(want, run.Stats()); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if !run.HasStat("CatX") {
		t.Error("expected CatX stat to exist")
	}
}

// TestNewScanReport tests building a report from a run.
func TestNewScanReport(t *testing.T) {
	t.Parallel()

	run := NewScanRun("run-2", nil)
	run.Links = []string{"https://a.com", "https://b.com", "https://c.com"}
	run.Done = 3
	run.Skipped = 1
	run.Categorized.Add("CatX", "https://a.com")
	run.Unknown.Add("1.2.3.4", "https://b.com")

	report := NewScanReport(run)

	if report.RunID != "run-2" {
		t.Errorf("expected run id run-2, got %q", report.RunID)
	}
	if report.Total != 3 {
		t.Errorf("expected total 3, got %d", report.Total)
	}
	if report.Resolved != 2 {
		t.Errorf("expected 2 resolved, got %d", report.Resolved)
	}
	if report.CategorizedCount() != 1 || report.UnknownCount() != 1 {
		t.Errorf("unexpected counts: categorized=%d unknown=%d",
			report.CategorizedCount(), report.UnknownCount())
	}
	if report.IsEmpty() {
		t.Error("expected non-empty report")
	}
}

// TestOutcomeString tests outcome names.
func TestOutcomeString(t *testing.T) {
	t.Parallel()

	tests := map[Outcome]string{
		OutcomeOK:               "ok",
		OutcomeResolutionFailed: "resolution_failed",
		OutcomeFetchFailed:      "fetch_failed",
		OutcomeSkipped:          "skipped",
		Outcome(42):             "unknown",
	}
	for outcome, want := range tests {
		if got := outcome.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(outcome), got, want)
		}
	}
}

// TestOutcomeText tests the text encoding of outcomes.
func TestOutcomeText(t *testing.T) {
	t.Parallel()

	for _, o := range []Outcome{OutcomeOK, OutcomeResolutionFailed, OutcomeFetchFailed, OutcomeSkipped} {
		text, err := o.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Outcome
		if err := back.UnmarshalText(text); err != nil || back != o {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, back, err, o)
		}
	}

	var o Outcome
	if err := o.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown outcome")
	}
}

// TestAttachmentIsText tests the .txt suffix rule.
func TestAttachmentIsText(t *testing.T) {
	t.Parallel()

	if !(Attachment{Name: "links.txt"}).IsText() {
		t.Error("expected links.txt to be text")
	}
	if (Attachment{Name: "image.png"}).IsText() {
		t.Error("expected image.png not to be text")
	}
	if (Attachment{Name: "links.TXT"}).IsText() {
		t.Error("suffix match is case-sensitive")
	}
}
