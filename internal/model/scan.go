package model

import (
	"time"
)

// CategoryStat is the per-run accounting for one category, used purely
// for progress display: how many links the category held before the run
// and how many new links this run added.
type CategoryStat struct {
	Name    string `json:"name"`
	Initial int    `json:"initial"`
	Added   int    `json:"added"`
}

// Progress is the snapshot handed to progress reporters after each link.
type Progress struct {
	// RunID identifies the scan run.
	RunID string

	// Done is the number of links processed so far, resolved or not.
	Done int

	// Total is the number of links in the run.
	Total int

	// Stats lists every category that gained a link so far, in the order
	// the categories first gained one.
	Stats []CategoryStat
}

// Percent returns floor(Done/Total*100). An empty run is reported as
// complete rather than dividing by zero.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 100
	}
	return p.Done * 100 / p.Total
}

// ScanRun holds the ephemeral state of one scan. It is created at scan
// start, filled in by the pipeline steps and discarded once the report has
// been delivered.
type ScanRun struct {
	// ID uniquely identifies the run.
	ID string

	// StartedAt is when the run was created.
	StartedAt time.Time

	// Messages are the raw inputs of the run.
	Messages []Message

	// Links is the extracted, normalized and deduplicated link set in
	// first-occurrence order.
	Links []string

	// Attachments records the outcome of every attachment descriptor.
	Attachments []AttachmentResult

	// Done counts processed links, resolved or not.
	Done int

	// Skipped counts links whose host could not be resolved.
	Skipped int

	// Categorized accumulates this run's links per category.
	Categorized GroupList

	// Unknown accumulates this run's links per unmapped IP.
	Unknown GroupList

	// Report is set by the report step.
	Report *ScanReport

	stats     []CategoryStat
	statIndex map[string]int
}

// NewScanRun creates a run over the given messages.
func NewScanRun(id string, messages []Message) *ScanRun {
	return &ScanRun{
		ID:        id,
		StartedAt: time.Now(),
		Messages:  messages,
		statIndex: make(map[string]int),
	}
}

// HasStat reports whether the category already has an entry this run.
func (r *ScanRun) HasStat(category string) bool {
	_, ok := r.statIndex[category]
	return ok
}

// RecordAdded counts one new link for category. initial is only used the
// first time the category is seen in this run.
func (r *ScanRun) RecordAdded(category string, initial int) {
	if r.statIndex == nil {
		r.statIndex = make(map[string]int)
	}
	i, ok := r.statIndex[category]
	if !ok {
		i = len(r.stats)
		r.statIndex[category] = i
		r.stats = append(r.stats, CategoryStat{Name: category, Initial: initial})
	}
	r.stats[i].Added++
}

// Stats returns a copy of the per-category stats in first-seen order.
func (r *ScanRun) Stats() []CategoryStat {
	out := make([]CategoryStat, len(r.stats))
	copy(out, r.stats)
	return out
}

// Progress returns the current progress snapshot.
func (r *ScanRun) Progress() Progress {
	return Progress{
		RunID: r.ID,
		Done:  r.Done,
		Total: len(r.Links),
		Stats: r.Stats(),
	}
}

// ScanReport is the final result of a scan run.
type ScanReport struct {
	RunID       string             `json:"run_id"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Total       int                `json:"total"`
	Resolved    int                `json:"resolved"`
	Skipped     int                `json:"skipped"`
	Categorized []LinkGroup        `json:"categorized"`
	Unknown     []LinkGroup        `json:"unknown"`
	Stats       []CategoryStat     `json:"stats"`
	Attachments []AttachmentResult `json:"attachments,omitempty"`
}

// NewScanReport builds the report for a finished run.
func NewScanReport(run *ScanRun) *ScanReport {
	return &ScanReport{
		RunID:       run.ID,
		StartedAt:   run.StartedAt,
		FinishedAt:  time.Now(),
		Total:       len(run.Links),
		Resolved:    run.Done - run.Skipped,
		Skipped:     run.Skipped,
		Categorized: run.Categorized.Groups(),
		Unknown:     run.Unknown.Groups(),
		Stats:       run.Stats(),
		Attachments: run.Attachments,
	}
}

// IsEmpty reports whether the report contains no links at all.
func (r *ScanReport) IsEmpty() bool {
	return len(r.Categorized) == 0 && len(r.Unknown) == 0
}

// CategorizedCount returns the number of categorized links.
func (r *ScanReport) CategorizedCount() int {
	return countLinks(r.Categorized)
}

// UnknownCount returns the number of links at unmapped IPs.
func (r *ScanReport) UnknownCount() int {
	return countLinks(r.Unknown)
}
