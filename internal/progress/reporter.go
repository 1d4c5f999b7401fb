package progress

import (
	"log/slog"

	"github.com/nao1215/proxysort/internal/model"
)

// Reporter renders snapshots and forwards them to a Sink. Its Report method
// is the progress callback of the scan pipeline.
type Reporter struct {
	sink   Sink
	logger *slog.Logger
	events int
}

// NewReporter creates a Reporter writing to sink.
func NewReporter(sink Sink, logger *slog.Logger) *Reporter {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{sink: sink, logger: logger}
}

// Report renders p and updates the sink. A failing sink never stops a scan;
// the error is logged.
func (r *Reporter) Report(p model.Progress) {
	r.events++
	if err := r.sink.Update(Render(p)); err != nil {
		r.logger.Warn("failed to update progress", "error", err)
	}
}

// Complete shows the completion message.
func (r *Reporter) Complete() {
	if err := r.sink.Done(CompleteMessage); err != nil {
		r.logger.Warn("failed to finish progress", "error", err)
	}
	r.logger.Debug("progress finished", "updates", r.events)
}

