package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/nao1215/proxysort/internal/extract"
	"github.com/nao1215/proxysort/internal/model"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 5 * time.Second

// Lookup is the subset of *net.Resolver used by Resolver.
type Lookup interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Resolver resolves link hosts to IP addresses.
// It is safe for concurrent use.
type Resolver struct {
	lookup  Lookup
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookup replaces the underlying lookup implementation.
func WithLookup(lookup Lookup) Option {
	return func(r *Resolver) {
		r.lookup = lookup
	}
}

// WithDNSServer sends every query to server (host:port) instead of the
// system resolver.
func WithDNSServer(server string) Option {
	return func(r *Resolver) {
		if server == "" {
			return
		}
		r.lookup = newServerResolver(server)
	}
}

// WithTimeout sets the per-lookup timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRateLimit limits lookups to qps queries per second. Zero or negative
// disables the limit.
func WithRateLimit(qps float64) Option {
	return func(r *Resolver) {
		if qps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(qps), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver. By default it uses net.DefaultResolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		lookup:  net.DefaultResolver,
		timeout: DefaultTimeout,
		cache:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// newServerResolver builds a pure-Go resolver that dials server for every query.
func newServerResolver(server string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := net.Dialer{}
			return d.DialContext(ctx, network, server)
		},
	}
}

// Resolve resolves the host of link. Failed lookups are not cached, so a
// later Resolve of the same host tries again.
func (r *Resolver) Resolve(ctx context.Context, link string) model.Resolution {
	res := model.Resolution{URL: link, Host: extract.Host(link)}
	if res.Host == "" {
		res.Outcome = model.OutcomeResolutionFailed
		res.Err = ErrEmptyHost
		return res
	}

	ip, err := r.resolveHost(ctx, res.Host)
	if err != nil {
		r.logger.Debug("resolution failed", "host", res.Host, "error", err)
		res.Outcome = model.OutcomeResolutionFailed
		res.Err = err
		return res
	}

	res.IP = ip
	res.Outcome = model.OutcomeOK
	return res
}

func (r *Resolver) resolveHost(ctx context.Context, host string) (string, error) {
	r.mu.RLock()
	ip, ok := r.cache[host]
	r.mu.RUnlock()
	if ok {
		return ip, nil
	}

	v, err, _ := r.group.Do(host, func() (any, error) {
		ip, err := r.query(ctx, host)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.cache[host] = ip
		r.mu.Unlock()
		return ip, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) query(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.lookup.LookupIPAddr(lookupCtx, host)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", host, err)
	}
	return pickAddress(addrs, host)
}

// pickAddress returns the first IPv4 address, or the first address when the
// host only has IPv6 records.
func pickAddress(addrs []net.IPAddr, host string) (string, error) {
	if len(addrs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoAddress, host)
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return addrs[0].IP.String(), nil
}

