package report

import (
	"io"
	"strings"

	"github.com/nao1215/proxysort/internal/model"
)

// SimpleWriter outputs the plain-text scan result:
//
//	**Scanned Links**
//
//	**CatX**
//	https://a.com
//
//	**Unknown Links**
//	(9.9.9.9)
//	https://b.com
//
// Categories and IPs appear in the order they were first seen in the run.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	return io.WriteString(w.output, RenderText(report))
}

// RenderText returns the plain-text form of report.
func RenderText(report *model.ScanReport) string {
	var sb strings.Builder

	sb.WriteString("**Scanned Links**\n\n")
	for _, g := range report.Categorized {
		sb.WriteString("**" + g.Key + "**\n")
		sb.WriteString(strings.Join(g.Links, "\n"))
		sb.WriteString("\n\n")
	}

	if len(report.Unknown) > 0 {
		sb.WriteString("**Unknown Links**\n")
		for _, g := range report.Unknown {
			sb.WriteString("(" + g.Key + ")\n")
			sb.WriteString(strings.Join(g.Links, "\n"))
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}
