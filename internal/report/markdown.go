package report

import (
	"io"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/proxysort/internal/extract"
	"github.com/nao1215/proxysort/internal/model"
	"golang.org/x/net/publicsuffix"
)

// maxListedDomains caps the domains shown per category in the summary table.
const maxListedDomains = 5

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeCategories(md, report)
	w.writeUnknown(md, report)
	w.writeAttachments(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("proxysort Scan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Finished", report.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Links", strconv.Itoa(report.Total)},
			{"Resolved", strconv.Itoa(report.Resolved)},
			{"Unresolved", strconv.Itoa(report.Skipped)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the per-category table, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	if report.IsEmpty() {
		md.PlainText("No links were classified in this run.")
		md.PlainText("")
		w.writeAlert(md, report)
		return
	}

	added := make(map[string]model.CategoryStat, len(report.Stats))
	for _, s := range report.Stats {
		added[s.Name] = s
	}

	rows := make([][]string, 0, len(report.Categorized)+1)
	for _, g := range report.Categorized {
		stat := added[g.Key]
		rows = append(rows, []string{
			g.Key,
			strconv.Itoa(len(g.Links)),
			strconv.Itoa(stat.Added),
			strings.Join(registrableDomains(g.Links, maxListedDomains), ", "),
		})
	}
	if n := report.UnknownCount(); n > 0 {
		rows = append(rows, []string{"*Unknown*", strconv.Itoa(n), "-", "-"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Links", "New", "Domains"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Categorized)+len(report.Unknown) > 1 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of links per category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.ScanReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Links per Category"),
		piechart.WithShowData(true),
	)
	for _, g := range report.Categorized {
		chart.LabelAndIntValue(g.Key, uint64(len(g.Links)))
	}
	if n := report.UnknownCount(); n > 0 {
		chart.LabelAndIntValue("Unknown", uint64(n))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the state of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	switch {
	case len(report.Unknown) > 0:
		md.Importantf(
			"%d link(s) resolved to %d untracked IP(s). Track them to classify these links.",
			report.UnknownCount(), len(report.Unknown),
		)
	case report.Skipped > 0:
		md.Warningf("%d link(s) could not be resolved and were skipped.", report.Skipped)
	case report.Total == 0:
		md.Note("No links were found in the input.")
	default:
		md.Tip("Every link was classified.")
	}
	md.PlainText("")
}

// writeCategories lists every categorized link.
func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, report *model.ScanReport) {
	if len(report.Categorized) == 0 {
		return
	}

	md.H2("Categorized Links")
	md.PlainText("")
	for _, g := range report.Categorized {
		md.PlainText("### " + g.Key)
		md.PlainText("")
		md.BulletList(g.Links...)
		md.PlainText("")
	}
}

// writeUnknown lists links per untracked IP.
func (w *MarkdownWriter) writeUnknown(md *markdown.Markdown, report *model.ScanReport) {
	if len(report.Unknown) == 0 {
		return
	}

	md.H2("Unknown Links")
	md.PlainText("")
	for _, g := range report.Unknown {
		md.PlainText("### `" + g.Key + "`")
		md.PlainText("")
		md.BulletList(g.Links...)
		md.PlainText("")
		md.Details("Track this IP", "proxysort track "+g.Key+" <category>")
		md.PlainText("")
	}
}

// writeAttachments writes one row per attachment.
func (w *MarkdownWriter) writeAttachments(md *markdown.Markdown, report *model.ScanReport) {
	if len(report.Attachments) == 0 {
		return
	}

	md.H2("Attachments")
	md.PlainText("")

	rows := make([][]string, len(report.Attachments))
	for i, a := range report.Attachments {
		errText := a.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{a.Name, a.Outcome.String(), strconv.Itoa(a.Links), truncateString(errText, 60)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Outcome", "Links", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [proxysort](https://github.com/nao1215/proxysort)*")
}

// registrableDomains returns up to limit distinct registrable domains
// (eTLD+1) of links, sorted. Hosts without a known public suffix, such as
// IP literals, are listed as they are.
func registrableDomains(links []string, limit int) []string {
	seen := make(map[string]struct{})
	for _, link := range links {
		host := strings.ToLower(extract.Host(link))
		if host == "" {
			continue
		}
		domain := host
		if net.ParseIP(host) == nil {
			if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
				domain = d
			}
		}
		seen[domain] = struct{}{}
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	if len(domains) > limit {
		more := len(domains) - limit
		domains = append(domains[:limit], "+"+strconv.Itoa(more)+" more")
	}
	return domains
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
