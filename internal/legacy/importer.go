package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/proxysort/internal/model"
)

// File names with a fixed meaning in a legacy directory.
const (
	MappingFile = "customMappings.json"
	UnknownFile = "unknown.json"
)

// ignoredFiles are outputs of the bot, not state.
var ignoredFiles = map[string]bool{
	"scan_results.txt": true,
	"get_links.txt":    true,
}

// Backend is the persistence the importer writes to. *database.LinkDB
// implements it.
type Backend interface {
	SetMapping(ctx context.Context, ip, category string) error
	EnsureCategory(ctx context.Context, name string) error
	AppendLink(ctx context.Context, category, url string) (bool, error)
	MergeUnknown(ctx context.Context, groups []model.LinkGroup) (int, error)
}

// Summary counts what an import changed.
type Summary struct {
	// Mappings is the number of IP mappings written.
	Mappings int

	// Categories is the number of category files read.
	Categories int

	// Links is the number of category links that were not stored before.
	Links int

	// Unknown is the number of Unknown Bucket links that were not stored before.
	Unknown int

	// Ignored lists files that were skipped.
	Ignored []string
}

// Importer reads a legacy directory into a Backend.
type Importer struct {
	backend Backend
	logger  *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// NewImporter creates an Importer.
func NewImporter(backend Backend, opts ...Option) *Importer {
	i := &Importer{backend: backend}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

// Import merges dir into the backend. Category files are imported before
// the mapping so that categories named by the mapping keep their links.
func (i *Importer) Import(ctx context.Context, dir string) (*Summary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	sum := &Summary{}
	var hasMapping, hasUnknown bool
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		name := entry.Name()
		switch {
		case entry.IsDir():
			continue
		case name == MappingFile:
			hasMapping = true
		case name == UnknownFile:
			hasUnknown = true
		case strings.HasSuffix(name, ".json"):
			if err := i.importCategory(ctx, filepath.Join(dir, name), sum); err != nil {
				return sum, err
			}
		default:
			if !ignoredFiles[name] {
				i.logger.Debug("unrecognized file", "name", name)
			}
			sum.Ignored = append(sum.Ignored, name)
		}
	}

	if hasMapping {
		if err := i.importMapping(ctx, filepath.Join(dir, MappingFile), sum); err != nil {
			return sum, err
		}
	}
	if hasUnknown {
		if err := i.importUnknown(ctx, filepath.Join(dir, UnknownFile), sum); err != nil {
			return sum, err
		}
	}

	i.logger.Info("legacy directory imported",
		"dir", dir,
		"mappings", sum.Mappings,
		"categories", sum.Categories,
		"links", sum.Links,
		"unknown", sum.Unknown,
	)
	return sum, nil
}

func (i *Importer) importCategory(ctx context.Context, path string, sum *Summary) error {
	var links []string
	if err := readJSON(path, &links); err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), ".json")
	if err := i.backend.EnsureCategory(ctx, name); err != nil {
		return err
	}
	for _, link := range links {
		if link == "" {
			continue
		}
		added, err := i.backend.AppendLink(ctx, name, link)
		if err != nil {
			return err
		}
		if added {
			sum.Links++
		}
	}
	sum.Categories++
	return nil
}

func (i *Importer) importMapping(ctx context.Context, path string, sum *Summary) error {
	var mapping map[string]string
	if err := readJSON(path, &mapping); err != nil {
		return err
	}

	for _, ip := range sortedKeys(mapping) {
		if err := i.backend.SetMapping(ctx, ip, mapping[ip]); err != nil {
			return fmt.Errorf("failed to import mapping for %s: %w", ip, err)
		}
		sum.Mappings++
	}
	return nil
}

func (i *Importer) importUnknown(ctx context.Context, path string, sum *Summary) error {
	var bucket map[string][]string
	if err := readJSON(path, &bucket); err != nil {
		return err
	}

	groups := make([]model.LinkGroup, 0, len(bucket))
	for _, ip := range sortedKeys(bucket) {
		groups = append(groups, model.LinkGroup{Key: ip, Links: bucket[ip]})
	}
	n, err := i.backend.MergeUnknown(ctx, groups)
	if err != nil {
		return err
	}
	sum.Unknown += n
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedFile, filepath.Base(path), err) //nolint:errorlint // the decode error is detail only
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
