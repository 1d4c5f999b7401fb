package extract

import (
	"context"
	"log/slog"

	"github.com/nao1215/proxysort/internal/model"
)

// Extractor collects links from messages and their attachments.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used to report attachment failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Result is the outcome of extracting links from a batch of messages.
type Result struct {
	// Links holds every distinct normalized link in first-occurrence order.
	Links LinkSet

	// Attachments has one entry per attachment descriptor, in input order.
	Attachments []model.AttachmentResult
}

// Extract scans every message body, then that message's attachments, in
// order. Attachments that are not .txt files are skipped and attachments that
// fail to fetch contribute no links; neither aborts the extraction. The only
// error returned is ctx's, when it is cancelled between items.
func (e *Extractor) Extract(ctx context.Context, messages []model.Message) (*Result, error) {
	res := &Result{}
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Links.AddAll(FindLinks(msg.Text))

		for _, att := range msg.Attachments {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Attachments = append(res.Attachments, e.extractAttachment(ctx, att, &res.Links))
		}
	}
	return res, nil
}

func (e *Extractor) extractAttachment(ctx context.Context, att model.Attachment, set *LinkSet) model.AttachmentResult {
	result := model.AttachmentResult{Name: att.Name}

	if !att.IsText() || att.FetchText == nil {
		result.Outcome = model.OutcomeSkipped
		e.logger.Debug("attachment skipped", "name", att.Name)
		return result
	}

	text, err := att.FetchText(ctx)
	if err != nil {
		result.Outcome = model.OutcomeFetchFailed
		result.Error = err.Error()
		e.logger.Warn("failed to fetch attachment", "name", att.Name, "error", err)
		return result
	}

	hosts := FindHosts(text)
	set.AddAll(hosts)
	result.Outcome = model.OutcomeOK
	result.Links = len(hosts)
	return result
}
