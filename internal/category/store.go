package category

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/nao1215/proxysort/internal/database"
	"github.com/nao1215/proxysort/internal/model"
	"golang.org/x/text/cases"
)

// Backend is the persistence used by a Store. *database.LinkDB implements it.
type Backend interface {
	Mapping(ctx context.Context) (map[string]string, error)
	CategoryExists(ctx context.Context, name string) (bool, error)
	CategoryCount(ctx context.Context, name string) (int, error)
	CategoryLinks(ctx context.Context, name string) ([]string, error)
	AppendLink(ctx context.Context, category, url string) (bool, error)
	Categories(ctx context.Context) ([]database.CategorySummary, error)
	MergeUnknown(ctx context.Context, groups []model.LinkGroup) (int, error)
	UnknownLinks(ctx context.Context) ([]model.LinkGroup, error)
	TrackIP(ctx context.Context, ip, category string) (database.TrackResult, error)
}

// Store classifies IPs against the mapping and manages category link sets.
// It is safe for concurrent use.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.RWMutex
	mapping map[string]string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store over backend. The mapping is empty until Load.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		mapping: make(map[string]string),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Load replaces the mapping snapshot with the persisted mapping.
func (s *Store) Load(ctx context.Context) error {
	mapping, err := s.backend.Mapping(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mapping: %w", err)
	}
	s.mu.Lock()
	s.mapping = mapping
	s.mu.Unlock()

	s.logger.Debug("mapping loaded", "ips", len(mapping))
	return nil
}

// CategoryFor returns the category ip is mapped to.
func (s *Store) CategoryFor(ip string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.mapping[ip]
	return name, ok
}

// MappingSize returns the number of mapped IPs in the snapshot.
func (s *Store) MappingSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mapping)
}

// SizeOf returns the number of links stored under name.
func (s *Store) SizeOf(ctx context.Context, name string) (int, error) {
	return s.backend.CategoryCount(ctx, name)
}

// Lock acquires the lock of category name and returns its unlock function.
// Callers hold it while they read the size of a category and append to it,
// so the before and after counts belong to the same append.
func (s *Store) Lock(name string) func() {
	s.locksMu.Lock()
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

// Append adds url to category name and reports whether it was new.
func (s *Store) Append(ctx context.Context, name, url string) (bool, error) {
	added, err := s.backend.AppendLink(ctx, name, url)
	if err != nil {
		return false, fmt.Errorf("failed to append to %s: %w", name, err)
	}
	return added, nil
}

// TrackMapping maps ip to name, moves every link queued under ip into name
// and returns the number of queued links.
func (s *Store) TrackMapping(ctx context.Context, ip, name string) (int, error) {
	if err := s.Load(ctx); err != nil {
		return 0, err
	}

	unlock := s.Lock(name)
	defer unlock()

	res, err := s.backend.TrackIP(ctx, ip, name)
	if err != nil {
		return 0, fmt.Errorf("failed to track %s: %w", ip, err)
	}

	s.mu.Lock()
	s.mapping[ip] = name
	s.mu.Unlock()

	s.logger.Info("ip tracked",
		"ip", ip,
		"category", name,
		"moved", res.Moved,
		"added", res.Added,
	)
	return res.Moved, nil
}

// MergeUnknown unions groups into the Unknown Bucket and returns the number
// of newly queued links.
func (s *Store) MergeUnknown(ctx context.Context, groups []model.LinkGroup) (int, error) {
	if len(groups) == 0 {
		return 0, nil
	}
	n, err := s.backend.MergeUnknown(ctx, groups)
	if err != nil {
		return 0, fmt.Errorf("failed to merge unknown links: %w", err)
	}
	return n, nil
}

// Unknown returns the Unknown Bucket grouped by IP.
func (s *Store) Unknown(ctx context.Context) ([]model.LinkGroup, error) {
	return s.backend.UnknownLinks(ctx)
}

// Retrieve returns up to count links of category name, sampled without
// replacement in random order. The stored set is not modified. A count of
// zero or less is treated as 1. When no category has exactly this name, a
// unique case-insensitive match is used instead.
func (s *Store) Retrieve(ctx context.Context, name string, count int, rng *rand.Rand) ([]string, error) {
	if count <= 0 {
		count = 1
	}

	resolved, err := s.resolveName(ctx, name)
	if err != nil {
		return nil, err
	}

	links, err := s.backend.CategoryLinks(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", resolved, err)
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCategoryEmpty, resolved)
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // sampling, not security
	}

	// Partial Fisher-Yates over a working copy.
	n := min(count, len(links))
	for i := range n {
		j := i + rng.IntN(len(links)-i)
		links[i], links[j] = links[j], links[i]
	}
	return links[:n], nil
}

// resolveName returns the stored category matching name exactly, or the
// single stored category equal to it under Unicode case folding.
func (s *Store) resolveName(ctx context.Context, name string) (string, error) {
	exists, err := s.backend.CategoryExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", name, err)
	}
	if exists {
		return name, nil
	}

	summaries, err := s.backend.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list categories: %w", err)
	}

	fold := cases.Fold()
	want := fold.String(name)
	var matches []string
	for _, c := range summaries {
		if fold.String(c.Name) == want {
			matches = append(matches, c.Name)
		}
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	return matches[0], nil
}

// Summary describes one category for listing.
type Summary struct {
	Name  string
	Links int
	IPs   []string
}

// Categories returns the supported categories: every category at least one
// IP is mapped to, sorted by name.
func (s *Store) Categories(ctx context.Context) ([]Summary, error) {
	return s.listCategories(ctx, true)
}

// AllCategories returns every stored category, mapped or not.
func (s *Store) AllCategories(ctx context.Context) ([]Summary, error) {
	return s.listCategories(ctx, false)
}

func (s *Store) listCategories(ctx context.Context, mappedOnly bool) ([]Summary, error) {
	summaries, err := s.backend.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	out := make([]Summary, 0, len(summaries))
	for _, c := range summaries {
		if mappedOnly && len(c.IPs) == 0 {
			continue
		}
		out = append(out, Summary{Name: c.Name, Links: c.Links, IPs: c.IPs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
