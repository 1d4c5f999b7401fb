package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".proxysort"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .proxysort configuration file.
// Zero values mean "not set" and leave the current configuration untouched.
type File struct {
	// DataDir overrides the XDG data directory.
	DataDir string `yaml:"dataDir,omitempty"`

	DNS   DNSFile   `yaml:"dns,omitempty"`
	Scan  ScanFile  `yaml:"scan,omitempty"`
	Fetch FetchFile `yaml:"fetch,omitempty"`
}

// DNSFile holds resolver settings.
type DNSFile struct {
	// Server is a "host:port" DNS server, e.g. "1.1.1.1:53".
	Server string `yaml:"server,omitempty"`

	// Timeout bounds one lookup, e.g. "5s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// QPS limits lookups per second.
	QPS float64 `yaml:"qps,omitempty"`
}

// ScanFile holds scan behaviour settings.
type ScanFile struct {
	Concurrency  int    `yaml:"concurrency,omitempty"`
	MessageLimit int    `yaml:"messageLimit,omitempty"`
	Progress     string `yaml:"progress,omitempty"`
}

// FetchFile holds attachment download settings.
type FetchFile struct {
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	MaxSize    int64         `yaml:"maxSize,omitempty"`
	SocksProxy string        `yaml:"socksProxy,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .proxysort in the current directory
// 3. Look for .proxysort in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Apply copies every set value of the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	if cf == nil {
		return
	}
	if cf.DataDir != "" {
		cfg.DataDir = cf.DataDir
	}
	if cf.DNS.Server != "" {
		cfg.DNSServer = cf.DNS.Server
	}
	if cf.DNS.Timeout != 0 {
		cfg.DNSTimeout = cf.DNS.Timeout
	}
	if cf.DNS.QPS != 0 {
		cfg.QueriesPerSecond = cf.DNS.QPS
	}
	if cf.Scan.Concurrency != 0 {
		cfg.Concurrency = cf.Scan.Concurrency
	}
	if cf.Scan.MessageLimit != 0 {
		cfg.MessageLimit = cf.Scan.MessageLimit
	}
	if cf.Scan.Progress != "" {
		cfg.ProgressMode = cf.Scan.Progress
	}
	if cf.Fetch.Timeout != 0 {
		cfg.FetchTimeout = cf.Fetch.Timeout
	}
	if cf.Fetch.MaxSize != 0 {
		cfg.MaxAttachmentSize = cf.Fetch.MaxSize
	}
	if cf.Fetch.SocksProxy != "" {
		cfg.SocksProxy = cf.Fetch.SocksProxy
	}
}
