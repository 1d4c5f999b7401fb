package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// CategorySummary describes one stored category.
type CategorySummary struct {
	// Name is the category name.
	Name string

	// Links is the number of stored links.
	Links int

	// IPs lists the addresses mapped to the category, sorted.
	IPs []string
}

// Mapping returns the full IP to category mapping.
func (ldb *LinkDB) Mapping(ctx context.Context) (map[string]string, error) {
	rows, err := ldb.db.QueryContext(ctx, `SELECT ip, category FROM ip_mappings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var ip, category string
		if err := rows.Scan(&ip, &category); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mapping[ip] = category
	}
	return mapping, rows.Err()
}

// SetMapping maps ip to category, replacing any previous mapping, and
// records the category as known. Links queued for ip are left untouched;
// use TrackIP to migrate them.
func (ldb *LinkDB) SetMapping(ctx context.Context, ip, category string) error {
	if strings.TrimSpace(ip) == "" {
		return ErrEmptyIP
	}
	return ldb.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureCategory(ctx, tx, category); err != nil {
			return err
		}
		return upsertMapping(ctx, tx, ip, category)
	})
}

func upsertMapping(ctx context.Context, ex execer, ip, category string) error {
	_, err := ex.ExecContext(ctx, `
	INSERT INTO ip_mappings (ip, category) VALUES (?, ?)
	ON CONFLICT(ip) DO UPDATE SET
		category = excluded.category,
		updated_at = CURRENT_TIMESTAMP
	`, ip, category)
	if err != nil {
		return fmt.Errorf("failed to save mapping %s: %w", ip, err)
	}
	return nil
}

// EnsureCategory records name as a known category. It is a no-op when the
// category already exists.
func (ldb *LinkDB) EnsureCategory(ctx context.Context, name string) error {
	return ensureCategory(ctx, ldb.db, name)
}

// CategoryExists reports whether name is a known category.
func (ldb *LinkDB) CategoryExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := ldb.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return count > 0, nil
}

// CategoryCount returns the number of links stored under name.
// An unknown category has zero links.
func (ldb *LinkDB) CategoryCount(ctx context.Context, name string) (int, error) {
	var count int
	err := ldb.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM category_links WHERE category = ?`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// CategoryLinks returns the links stored under name in insertion order.
func (ldb *LinkDB) CategoryLinks(ctx context.Context, name string) ([]string, error) {
	rows, err := ldb.db.QueryContext(ctx,
		`SELECT url FROM category_links WHERE category = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, url)
	}
	return links, rows.Err()
}

// AppendLink adds url to category and reports whether it was new.
// Appending a link that is already stored changes nothing.
func (ldb *LinkDB) AppendLink(ctx context.Context, category, url string) (bool, error) {
	var added bool
	err := ldb.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureCategory(ctx, tx, category); err != nil {
			return err
		}
		var err error
		added, err = insertLink(ctx, tx, category, url)
		return err
	})
	return added, err
}

// Categories returns every known category with its link count and mapped
// IPs, ordered by name.
func (ldb *LinkDB) Categories(ctx context.Context) ([]CategorySummary, error) {
	rows, err := ldb.db.QueryContext(ctx, `
	SELECT c.name,
		(SELECT COUNT(*) FROM category_links l WHERE l.category = c.name),
		COALESCE((SELECT GROUP_CONCAT(m.ip, ',') FROM ip_mappings m WHERE m.category = c.name), '')
	FROM categories c
	ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var summaries []CategorySummary
	for rows.Next() {
		var s CategorySummary
		var ips string
		if err := rows.Scan(&s.Name, &s.Links, &ips); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if ips != "" {
			s.IPs = strings.Split(ips, ",")
			sort.Strings(s.IPs)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
