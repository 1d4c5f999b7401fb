package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/proxysort/internal/database"
	"github.com/nao1215/proxysort/internal/extract"
	"github.com/nao1215/proxysort/internal/model"
	"github.com/nao1215/proxysort/internal/report"
)

// Classifier is the part of category.Store used by the classify and
// persist steps.
type Classifier interface {
	Load(ctx context.Context) error
	CategoryFor(ip string) (string, bool)
	SizeOf(ctx context.Context, name string) (int, error)
	Lock(name string) func()
	Append(ctx context.Context, name, url string) (bool, error)
	MergeUnknown(ctx context.Context, groups []model.LinkGroup) (int, error)
}

// ReportSaver persists rendered reports. *database.LinkDB implements it.
type ReportSaver interface {
	SaveScanReport(ctx context.Context, rec *database.ScanReportRecord) (int64, error)
}

// ProgressFunc receives one snapshot per processed link.
type ProgressFunc func(model.Progress)

// ExtractStep collects the run's links from its messages and attachments.
type ExtractStep struct {
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewExtractStep creates an extraction step.
func NewExtractStep(extractor *extract.Extractor, logger *slog.Logger) *ExtractStep {
	if extractor == nil {
		extractor = extract.NewExtractor(extract.WithLogger(logger))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStep{extractor: extractor, logger: logger}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do extracts links into run.Links and records attachment outcomes.
func (s *ExtractStep) Do(ctx context.Context, run *model.ScanRun) error {
	res, err := s.extractor.Extract(ctx, run.Messages)
	if err != nil {
		return err
	}
	run.Links = res.Links.Links()
	run.Attachments = res.Attachments

	s.logger.Info("links extracted",
		"run", run.ID,
		"messages", len(run.Messages),
		"attachments", len(run.Attachments),
		"links", len(run.Links),
	)
	return nil
}

// ClassifyStep resolves every link and files it under its category, or
// under its IP when the IP is not mapped.
type ClassifyStep struct {
	resolver    Resolver
	store       Classifier
	concurrency int
	onProgress  ProgressFunc
	logger      *slog.Logger
}

// ClassifyStepOption configures a ClassifyStep.
type ClassifyStepOption func(*ClassifyStep)

// WithConcurrency sets how many lookups may run ahead of classification.
func WithConcurrency(n int) ClassifyStepOption {
	return func(s *ClassifyStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) ClassifyStepOption {
	return func(s *ClassifyStep) {
		s.onProgress = fn
	}
}

// WithClassifyLogger sets the logger.
func WithClassifyLogger(logger *slog.Logger) ClassifyStepOption {
	return func(s *ClassifyStep) {
		s.logger = logger
	}
}

// NewClassifyStep creates a classification step.
func NewClassifyStep(resolver Resolver, store Classifier, opts ...ClassifyStepOption) *ClassifyStep {
	s := &ClassifyStep{
		resolver:    resolver,
		store:       store,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do classifies run.Links in order. The mapping is reloaded first so that
// tracks made since the last run apply. Cancellation stops the step before
// the next link; links already appended stay stored.
func (s *ClassifyStep) Do(ctx context.Context, run *model.ScanRun) error {
	if err := s.store.Load(ctx); err != nil {
		return err
	}
	if len(run.Links) == 0 {
		return nil
	}

	pf := newPrefetcher(ctx, s.resolver, run.Links, s.concurrency)
	defer pf.close()

	for i := range run.Links {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("classification cancelled",
				"run", run.ID,
				"done", run.Done,
				"total", len(run.Links),
			)
			return err
		}

		res, err := pf.next(ctx, i)
		if err != nil {
			return err
		}

		if err := s.classify(ctx, run, res); err != nil {
			return err
		}

		run.Done++
		if s.onProgress != nil {
			s.onProgress(run.Progress())
		}
	}

	s.logger.Info("links classified",
		"run", run.ID,
		"total", len(run.Links),
		"skipped", run.Skipped,
		"categories", run.Categorized.Len(),
		"unknown_ips", run.Unknown.Len(),
	)
	return nil
}

func (s *ClassifyStep) classify(ctx context.Context, run *model.ScanRun, res model.Resolution) error {
	if !res.OK() {
		run.Skipped++
		s.logger.Debug("link skipped", "url", res.URL, "outcome", res.Outcome.String(), "error", res.Err)
		return nil
	}

	name, ok := s.store.CategoryFor(res.IP)
	if !ok {
		run.Unknown.Add(res.IP, res.URL)
		return nil
	}

	unlock := s.store.Lock(name)
	defer unlock()

	run.Categorized.Add(name, res.URL)

	// The initial size is only read until the category has a stat.
	before := 0
	if !run.HasStat(name) {
		var err error
		if before, err = s.store.SizeOf(ctx, name); err != nil {
			return fmt.Errorf("failed to read size of %s: %w", name, err)
		}
	}
	added, err := s.store.Append(ctx, name, res.URL)
	if err != nil {
		return err
	}
	if added {
		run.RecordAdded(name, before)
	}
	return nil
}

// PersistUnknownStep merges the run's unknown links into the Unknown Bucket.
type PersistUnknownStep struct {
	store  Classifier
	logger *slog.Logger
}

// NewPersistUnknownStep creates the Unknown Bucket merge step.
func NewPersistUnknownStep(store Classifier, logger *slog.Logger) *PersistUnknownStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistUnknownStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *PersistUnknownStep) Name() string {
	return "persist_unknown"
}

// Do merges run.Unknown into the Unknown Bucket.
func (s *PersistUnknownStep) Do(ctx context.Context, run *model.ScanRun) error {
	groups := run.Unknown.Groups()
	n, err := s.store.MergeUnknown(ctx, groups)
	if err != nil {
		return err
	}
	if len(groups) > 0 {
		s.logger.Info("unknown links queued", "run", run.ID, "ips", len(groups), "new_links", n)
	}
	return nil
}

// ReportStep builds the scan report, saves it and writes it out.
type ReportStep struct {
	saver  ReportSaver
	writer report.Writer
	logger *slog.Logger
}

// NewReportStep creates the report step. writer may be nil when the caller
// only needs the saved report.
func NewReportStep(saver ReportSaver, writer report.Writer, logger *slog.Logger) *ReportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportStep{saver: saver, writer: writer, logger: logger}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do sets run.Report, saves it and hands it to the writer.
func (s *ReportStep) Do(ctx context.Context, run *model.ScanRun) error {
	rep := model.NewScanReport(run)
	run.Report = rep

	text := report.RenderText(rep)
	data, err := report.MarshalReport(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if s.saver != nil {
		rec := &database.ScanReportRecord{
			RunID:       rep.RunID,
			Total:       rep.Total,
			Categorized: rep.CategorizedCount(),
			Unknown:     rep.UnknownCount(),
			Text:        text,
			JSON:        data,
			Digest:      report.Digest(text),
		}
		id, err := s.saver.SaveScanReport(ctx, rec)
		if err != nil {
			return err
		}
		s.logger.Debug("report saved", "run", run.ID, "id", id, "digest", rec.Digest)
	}

	if s.writer != nil {
		if _, err := s.writer.Write(rep); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
