package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nao1215/proxysort/internal/model"
	"github.com/sony/gobreaker"
)

const (
	// DefaultTimeout bounds one remote download.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxSize is the largest attachment read, in bytes.
	DefaultMaxSize int64 = 5 * 1024 * 1024

	// DefaultUserAgent is sent with remote downloads.
	DefaultUserAgent = "proxysort"

	// breakerFailures is the number of consecutive failures that opens a
	// host's breaker.
	breakerFailures = 3
)

// Fetcher builds attachment descriptors and downloads their content.
type Fetcher struct {
	client    *http.Client
	socksAddr string
	timeout   time.Duration
	maxSize   int64
	userAgent string
	logger    *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxSize sets the largest attachment accepted, in bytes.
func WithMaxSize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithSOCKSProxy routes remote downloads through a SOCKS5 proxy (host:port).
func WithSOCKSProxy(addr string) Option {
	return func(f *Fetcher) {
		f.socksAddr = addr
	}
}

// WithHTTPClient replaces the HTTP client. The SOCKS5 option is ignored
// when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header for remote downloads.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:   DefaultTimeout,
		maxSize:   DefaultMaxSize,
		userAgent: DefaultUserAgent,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.client == nil {
		client, err := newHTTPClient(f.socksAddr, f.timeout)
		if err != nil {
			return nil, err
		}
		f.client = client
	}
	return f, nil
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Attachment returns a descriptor for location. The content is not read
// until FetchText is called.
func (f *Fetcher) Attachment(location string) model.Attachment {
	if IsRemote(location) {
		return model.Attachment{
			Name: remoteName(location),
			FetchText: func(ctx context.Context) (string, error) {
				return f.fetchRemote(ctx, location)
			},
		}
	}
	return model.Attachment{
		Name: filepath.Base(location),
		FetchText: func(context.Context) (string, error) {
			return f.readLocal(location)
		},
	}
}

// Attachments returns one descriptor per location, in order.
func (f *Fetcher) Attachments(locations []string) []model.Attachment {
	out := make([]model.Attachment, len(locations))
	for i, loc := range locations {
		out[i] = f.Attachment(loc)
	}
	return out
}

// remoteName returns the last path element of a URL, the name the file was
// uploaded under.
func remoteName(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Path == "" || u.Path == "/" {
		return location
	}
	return path.Base(u.Path)
}

func (f *Fetcher) readLocal(location string) (string, error) {
	file, err := os.Open(filepath.Clean(location))
	if err != nil {
		return "", fmt.Errorf("failed to open attachment: %w", err)
	}
	defer file.Close()

	return f.readText(file)
}

func (f *Fetcher) fetchRemote(ctx context.Context, location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid attachment URL: %w", err)
	}

	result, err := f.breaker(u.Host).Execute(func() (any, error) {
		return f.download(ctx, location)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			f.logger.Debug("attachment host circuit open", "host", u.Host)
		}
		return "", err
	}
	return result.(string), nil
}

func (f *Fetcher) download(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return f.readText(resp.Body)
}

// readText reads at most maxSize bytes and checks the content is UTF-8.
func (f *Fetcher) readText(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read attachment: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return "", fmt.Errorf("%w: limit %d bytes", ErrTooLarge, f.maxSize)
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}

// breaker returns the circuit breaker for host, creating it on first use.
func (f *Fetcher) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Info("attachment host breaker state changed",
				"host", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	f.breakers[host] = cb
	return cb
}
