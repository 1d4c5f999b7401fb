package pipeline

import (
	"log/slog"

	"github.com/nao1215/proxysort/internal/extract"
	"github.com/nao1215/proxysort/internal/report"
)

// ScanConfig holds the collaborators of the default scan pipeline.
type ScanConfig struct {
	// Resolver resolves link hosts.
	Resolver Resolver

	// Store classifies IPs and stores links.
	Store Classifier

	// Saver persists the report. Optional.
	Saver ReportSaver

	// Writer receives the final report. Optional.
	Writer report.Writer

	// Progress receives one snapshot per link. Optional.
	Progress ProgressFunc

	// Concurrency bounds lookups running ahead of classification.
	Concurrency int

	// Logger is shared by all steps.
	Logger *slog.Logger
}

// ScanPipeline creates the extract, classify, persist_unknown and report
// pipeline.
func ScanPipeline(cfg ScanConfig, opts ...Option) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)
	p.AddSteps(
		NewExtractStep(extract.NewExtractor(extract.WithLogger(logger)), logger),
		NewClassifyStep(cfg.Resolver, cfg.Store,
			WithConcurrency(cfg.Concurrency),
			WithProgress(cfg.Progress),
			WithClassifyLogger(logger),
		),
		NewPersistUnknownStep(cfg.Store, logger),
		NewReportStep(cfg.Saver, cfg.Writer, logger),
	)
	return p
}
