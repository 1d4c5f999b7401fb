package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "proxysort"

	// DefaultConcurrency is the number of DNS lookups allowed to run ahead of
	// classification. Classification itself is always sequential.
	DefaultConcurrency = 8

	// DefaultDNSTimeout bounds a single host lookup.
	DefaultDNSTimeout = 5 * time.Second

	// DefaultFetchTimeout bounds a single attachment download.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxAttachmentSize limits how much of an attachment is read.
	DefaultMaxAttachmentSize = 5 * 1024 * 1024 // 5MB

	// DefaultReportFileName is the file name of the scan report artifact,
	// written into the data directory unless --output is given.
	DefaultReportFileName = "scan_results.txt"

	// DefaultRetrievalFileName is the file name hint for retrieved links.
	DefaultRetrievalFileName = "get_links.txt"

	// DefaultUserAgent identifies proxysort when downloading attachments.
	DefaultUserAgent = "proxysort (+https://github.com/nao1215/proxysort)"
)

// Progress display modes.
const (
	// ProgressAuto rewrites the progress in place on a terminal and falls
	// back to log lines otherwise.
	ProgressAuto = "auto"

	// ProgressTerminal always rewrites the progress in place.
	ProgressTerminal = "terminal"

	// ProgressLog emits one log line per processed link.
	ProgressLog = "log"

	// ProgressNone disables progress output.
	ProgressNone = "none"
)

// Config holds all configuration options for proxysort.
// It is populated once per command invocation and passed down explicitly.
type Config struct {
	// DataDir is where the SQLite database and report artifacts live.
	// Defaults to the XDG data directory (~/.local/share/proxysort on Linux).
	DataDir string

	// ConfigFilePath is the path to the YAML configuration file.
	// If empty, .proxysort is searched in the current and home directories.
	ConfigFilePath string

	// EnvFile is an optional dotenv file loaded before reading PROXYSORT_* variables.
	EnvFile string

	// Verbose enables debug logging.
	Verbose bool

	// Concurrency is the number of host lookups that may run ahead of
	// classification.
	Concurrency int

	// DNSServer is an optional "host:port" DNS server. When empty the
	// system resolver is used.
	DNSServer string

	// DNSTimeout bounds a single host lookup.
	DNSTimeout time.Duration

	// QueriesPerSecond limits DNS lookups. Zero means unlimited.
	QueriesPerSecond float64

	// FetchTimeout bounds a single attachment download.
	FetchTimeout time.Duration

	// MaxAttachmentSize is the maximum number of bytes read from an attachment.
	// Zero means DefaultMaxAttachmentSize.
	MaxAttachmentSize int64

	// SocksProxy is an optional "host:port" SOCKS5 proxy used for
	// attachment downloads.
	SocksProxy string

	// MessageLimit keeps only the last N messages of the input. Zero keeps all.
	MessageLimit int

	// ProgressMode selects how progress is displayed.
	ProgressMode string

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the report output path. When empty the report is written
	// to DefaultReportFileName inside DataDir.
	ReportFile string

	// PrintReport also writes the report to standard output.
	PrintReport bool

	// MessageFiles are files whose non-empty lines are message bodies.
	MessageFiles []string

	// Texts are literal message bodies.
	Texts []string

	// Attachments are local paths or http(s) URLs of attached files.
	Attachments []string

	// ReadStdin reads additional message bodies from standard input.
	ReadStdin bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DataDir:           XDGDataDir(),
		Concurrency:       DefaultConcurrency,
		DNSTimeout:        DefaultDNSTimeout,
		FetchTimeout:      DefaultFetchTimeout,
		MaxAttachmentSize: DefaultMaxAttachmentSize,
		ProgressMode:      ProgressAuto,
	}
}

// XDGDataDir returns the XDG data directory for proxysort.
// On Linux: ~/.local/share/proxysort
// On macOS: ~/Library/Application Support/proxysort
// On Windows: %LOCALAPPDATA%\proxysort
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for proxysort.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ReportPath returns the path the scan report is written to.
func (c *Config) ReportPath() string {
	if c.ReportFile != "" {
		return c.ReportFile
	}
	return filepath.Join(c.DataDir, DefaultReportFileName)
}

// HasInput reports whether any message source is configured.
func (c *Config) HasInput() bool {
	return len(c.MessageFiles) > 0 || len(c.Texts) > 0 || len(c.Attachments) > 0 || c.ReadStdin
}

// ValidateStore checks the settings every command needs: the data directory.
func (c *Config) ValidateStore() error {
	if c.DataDir == "" {
		return ErrEmptyDataDir
	}
	return nil
}

// Validate checks if the scan configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if !c.HasInput() {
		return ErrNoInput
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.DNSTimeout <= 0 {
		return ErrInvalidDNSTimeout
	}
	if c.QueriesPerSecond < 0 {
		return ErrInvalidQPS
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}
	if c.MaxAttachmentSize < 0 {
		return ErrInvalidMaxAttachmentSize
	}
	if c.MessageLimit < 0 {
		return ErrInvalidMessageLimit
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	switch c.ProgressMode {
	case ProgressAuto, ProgressTerminal, ProgressLog, ProgressNone:
	default:
		return ErrInvalidProgressMode
	}
	return nil
}
