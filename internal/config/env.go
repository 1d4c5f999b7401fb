package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvDataDir     = "PROXYSORT_DATA_DIR"
	EnvDNSServer   = "PROXYSORT_DNS_SERVER"
	EnvDNSTimeout  = "PROXYSORT_DNS_TIMEOUT"
	EnvQPS         = "PROXYSORT_QPS"
	EnvConcurrency = "PROXYSORT_CONCURRENCY"
	EnvSocksProxy  = "PROXYSORT_SOCKS_PROXY"
)

// DefaultEnvFile is the dotenv file loaded when no --env-file is given.
const DefaultEnvFile = ".env"

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing default file is not
// an error; a missing explicit file is.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with PROXYSORT_* variables found through lookup.
// lookup is usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvDNSServer); ok && v != "" {
		cfg.DNSServer = v
	}
	if v, ok := lookup(EnvSocksProxy); ok && v != "" {
		cfg.SocksProxy = v
	}
	if v, ok := lookup(EnvDNSTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDNSTimeout, err)
		}
		cfg.DNSTimeout = d
	}
	if v, ok := lookup(EnvQPS); ok && v != "" {
		qps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvQPS, err)
		}
		cfg.QueriesPerSecond = qps
	}
	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		cfg.Concurrency = n
	}
	return nil
}
