package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/proxysort/internal/category"
	"github.com/nao1215/proxysort/internal/config"
	"github.com/nao1215/proxysort/internal/database"
	"github.com/nao1215/proxysort/internal/fetch"
	"github.com/nao1215/proxysort/internal/model"
	"github.com/nao1215/proxysort/internal/pipeline"
	"github.com/nao1215/proxysort/internal/progress"
	"github.com/nao1215/proxysort/internal/report"
	"github.com/nao1215/proxysort/internal/resolve"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file...]",
		Short: "Extract links from messages and sort them by hosting IP",
		Long: `Scan extracts every link from the given messages and attachments,
resolves the IP address of each link's host and stores the link under the
category mapped to that IP.

Each non-empty line of a message file is one message. Only .txt attachments
are scanned; from attachments only the host of each link is kept.

Links whose host cannot be resolved are skipped. Links at IPs without a
category are queued in the Unknown Bucket (see 'proxysort unknown').

Examples:
  # Scan an exported chat log
  proxysort scan messages.txt

  # Scan only the last 100 messages
  proxysort scan -n 100 messages.txt

  # Scan literal messages and an attachment
  proxysort scan -t "new list: https://example.com/p" -a proxies.txt

  # Download an attachment through Tor
  proxysort scan -a https://files.example.com/list.txt --socks-proxy 127.0.0.1:9050

  # Read messages from standard input and write a Markdown report
  cat log.txt | proxysort scan --stdin -m -o report.md

  # Also print the report after the summary
  proxysort scan -p messages.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringArrayP("text", "t", nil,
		"Literal message text (repeatable)")
	cmd.Flags().Bool("stdin", false,
		"Read messages from standard input, one per line")
	cmd.Flags().StringArrayP("attach", "a", nil,
		"Attachment path or http(s) URL (repeatable)")
	cmd.Flags().IntP("limit", "n", 0,
		"Keep only the last N messages (0 keeps all)")

	// Network flags
	cmd.Flags().IntP("concurrency", "C", config.DefaultConcurrency,
		"Number of DNS lookups allowed to run ahead of classification")
	cmd.Flags().String("dns-server", "",
		"DNS server as host:port (default: system resolver)")
	cmd.Flags().Duration("dns-timeout", config.DefaultDNSTimeout,
		"Timeout for a single DNS lookup")
	cmd.Flags().Float64("qps", 0,
		"Maximum DNS lookups per second (0 is unlimited)")
	cmd.Flags().String("socks-proxy", "",
		"SOCKS5 proxy for attachment downloads as host:port")
	cmd.Flags().Duration("fetch-timeout", config.DefaultFetchTimeout,
		"Timeout for downloading one attachment")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Write a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Report file path (default: scan_results.txt in the data directory)")
	cmd.Flags().BoolP("print", "p", false,
		"Also write the report to standard output")
	cmd.Flags().String("progress", config.ProgressAuto,
		"Progress display: auto, terminal, log or none")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyScanFlags(cmd, cfg, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &scanEnv{
		resolver: resolve.New(
			resolve.WithDNSServer(cfg.DNSServer),
			resolve.WithTimeout(cfg.DNSTimeout),
			resolve.WithRateLimit(cfg.QueriesPerSecond),
			resolve.WithLogger(logger),
		),
		sink:   progress.NewSink(cfg.ProgressMode, os.Stderr, logger),
		stdin:  cmd.InOrStdin(),
		out:    cmd.OutOrStdout(),
		logger: logger,
	}
	_, err = runScan(ctx, cfg, env)
	return err
}

// applyScanFlags copies the scan flags the user set onto cfg. Unset flags
// leave the values from the configuration file and environment alone.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	flags := cmd.Flags()
	var err error

	cfg.MessageFiles = args
	if cfg.Texts, err = flags.GetStringArray("text"); err != nil {
		return err
	}
	if cfg.ReadStdin, err = flags.GetBool("stdin"); err != nil {
		return err
	}
	if cfg.Attachments, err = flags.GetStringArray("attach"); err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	if cfg.PrintReport, err = flags.GetBool("print"); err != nil {
		return err
	}

	if flags.Changed("limit") {
		if cfg.MessageLimit, err = flags.GetInt("limit"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("dns-server") {
		if cfg.DNSServer, err = flags.GetString("dns-server"); err != nil {
			return err
		}
	}
	if flags.Changed("dns-timeout") {
		if cfg.DNSTimeout, err = flags.GetDuration("dns-timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("qps") {
		if cfg.QueriesPerSecond, err = flags.GetFloat64("qps"); err != nil {
			return err
		}
	}
	if flags.Changed("socks-proxy") {
		if cfg.SocksProxy, err = flags.GetString("socks-proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("fetch-timeout") {
		if cfg.FetchTimeout, err = flags.GetDuration("fetch-timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("progress") {
		if cfg.ProgressMode, err = flags.GetString("progress"); err != nil {
			return err
		}
	}
	return nil
}

// scanEnv holds the collaborators of a scan that are not configuration.
type scanEnv struct {
	resolver pipeline.Resolver
	sink     progress.Sink
	stdin    io.Reader
	out      io.Writer
	logger   *slog.Logger
}

// runScan executes one scan run and returns it.
func runScan(ctx context.Context, cfg *config.Config, env *scanEnv) (*model.ScanRun, error) {
	logger := env.logger

	fetcher, err := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxSize(cfg.MaxAttachmentSize),
		fetch.WithSOCKSProxy(cfg.SocksProxy),
		fetch.WithUserAgent(config.DefaultUserAgent),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment fetcher: %w", err)
	}

	messages, err := collectMessages(cfg, env.stdin)
	if err != nil {
		return nil, err
	}
	if len(cfg.Attachments) > 0 {
		messages = append(messages, model.Message{Attachments: fetcher.Attachments(cfg.Attachments)})
	}

	db, store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	run := model.NewScanRun(uuid.NewString(), messages)
	logger.Info("starting scan",
		"run", run.ID,
		"messages", len(messages),
		"attachments", len(cfg.Attachments),
		"mapped_ips", store.MappingSize(),
	)

	var writer report.Writer = &reportFile{cfg: cfg}
	var printed bytes.Buffer
	if cfg.PrintReport {
		writer = report.NewMultiWriter(writer, newReportWriter(cfg, &printed))
	}

	reporter := progress.NewReporter(env.sink, logger)
	p := pipeline.ScanPipeline(pipeline.ScanConfig{
		Resolver:    env.resolver,
		Store:       store,
		Saver:       db,
		Writer:      writer,
		Progress:    reporter.Report,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	})

	startTime := time.Now()
	if err := p.Execute(ctx, run); err != nil {
		return run, fmt.Errorf("scan failed: %w", err)
	}
	reporter.Complete()

	printScanSummary(env.out, cfg, run, time.Since(startTime))
	if printed.Len() > 0 {
		fmt.Fprintln(env.out)
		if _, err := printed.WriteTo(env.out); err != nil {
			return run, fmt.Errorf("failed to print report: %w", err)
		}
	}
	return run, nil
}

// collectMessages reads message bodies from every configured source and
// applies the message limit. Files are read in argument order, then literal
// texts, then standard input.
func collectMessages(cfg *config.Config, stdin io.Reader) ([]model.Message, error) {
	var messages []model.Message
	for _, path := range cfg.MessageFiles {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open message file: %w", err)
		}
		msgs, err := readMessages(f)
		_ = f.Close() //nolint:errcheck // read-only file
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		messages = append(messages, msgs...)
	}

	for _, text := range cfg.Texts {
		messages = append(messages, model.Message{Text: text})
	}

	if cfg.ReadStdin && stdin != nil {
		msgs, err := readMessages(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		messages = append(messages, msgs...)
	}

	return lastMessages(messages, cfg.MessageLimit), nil
}

// readMessages returns one message per non-empty line of r.
func readMessages(r io.Reader) ([]model.Message, error) {
	var messages []model.Message
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		messages = append(messages, model.Message{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// lastMessages keeps the last limit messages. A limit of zero keeps all.
func lastMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}

// reportFile writes the report to the configured file in the configured
// format. The file is only created once the report exists, so a failed scan
// leaves the previous report in place.
type reportFile struct {
	cfg *config.Config
}

// Write implements report.Writer.
func (r *reportFile) Write(rep *model.ScanReport) (int, error) {
	path := r.cfg.ReportPath()

	// Create directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list proxy links and may carry credentials; keep them owner-only.
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	n, err := newReportWriter(r.cfg, f).Write(rep)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

// newReportWriter selects the report format.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w)
	}
}

// printScanSummary prints a short summary of a finished run.
func printScanSummary(w io.Writer, cfg *config.Config, run *model.ScanRun, elapsed time.Duration) {
	rep := run.Report
	if rep == nil {
		return
	}
	fmt.Fprintf(w, "Scanned %d link(s) in %s\n", rep.Total, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  categorized: %d\n", rep.CategorizedCount())
	fmt.Fprintf(w, "  unknown:     %d\n", rep.UnknownCount())
	fmt.Fprintf(w, "  skipped:     %d\n", rep.Skipped)
	for _, s := range rep.Stats {
		fmt.Fprintf(w, "  %s (%d) +%d\n", s.Name, s.Initial, s.Added)
	}
	if len(rep.Unknown) > 0 {
		fmt.Fprintf(w, "%d IP(s) await tracking; see 'proxysort unknown'\n", len(rep.Unknown))
	}
	fmt.Fprintf(w, "Report: %s\n", cfg.ReportPath())
}

// Ensure the concrete types satisfy the pipeline interfaces.
var (
	_ pipeline.Classifier  = (*category.Store)(nil)
	_ pipeline.ReportSaver = (*database.LinkDB)(nil)
	_ pipeline.Resolver    = (*resolve.Resolver)(nil)
	_ report.Writer        = (*reportFile)(nil)
)
