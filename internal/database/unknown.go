package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nao1215/proxysort/internal/model"
)

// MergeUnknown unions groups into the Unknown Bucket and returns the number
// of links that were not already queued.
func (ldb *LinkDB) MergeUnknown(ctx context.Context, groups []model.LinkGroup) (int, error) {
	added := 0
	err := ldb.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO unknown_links (ip, url) VALUES (?, ?) ON CONFLICT(ip, url) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("failed to prepare unknown insert: %w", err)
		}
		defer stmt.Close()

		for _, g := range groups {
			if strings.TrimSpace(g.Key) == "" {
				return ErrEmptyIP
			}
			for _, url := range g.Links {
				result, err := stmt.ExecContext(ctx, g.Key, url)
				if err != nil {
					return fmt.Errorf("failed to queue unknown link: %w", err)
				}
				n, err := result.RowsAffected()
				if err != nil {
					return fmt.Errorf("failed to queue unknown link: %w", err)
				}
				added += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// UnknownLinks returns the Unknown Bucket grouped by IP. IPs appear in the
// order they were first queued, links in the order they were added.
func (ldb *LinkDB) UnknownLinks(ctx context.Context) ([]model.LinkGroup, error) {
	rows, err := ldb.db.QueryContext(ctx, `
	SELECT u.ip, u.url
	FROM unknown_links u
	JOIN (SELECT ip, MIN(id) AS first_id FROM unknown_links GROUP BY ip) f ON f.ip = u.ip
	ORDER BY f.first_id, u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unknown links: %w", err)
	}
	defer rows.Close()

	var list model.GroupList
	for rows.Next() {
		var ip, url string
		if err := rows.Scan(&ip, &url); err != nil {
			return nil, fmt.Errorf("failed to scan unknown link: %w", err)
		}
		list.Add(ip, url)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list.Groups(), nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryUnknownForIP(ctx context.Context, q querier, ip string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT url FROM unknown_links WHERE ip = ? ORDER BY id`, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to query unknown links: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan unknown link: %w", err)
		}
		links = append(links, url)
	}
	return links, rows.Err()
}

// TrackResult describes what TrackIP changed.
type TrackResult struct {
	// Moved is the number of links that were queued under the IP.
	Moved int

	// Added is how many of them were new to the category.
	Added int
}

// TrackIP maps ip to category and moves every link queued under ip into
// the category, removing ip from the Unknown Bucket. All of it happens in a
// single transaction.
func (ldb *LinkDB) TrackIP(ctx context.Context, ip, category string) (TrackResult, error) {
	if strings.TrimSpace(ip) == "" {
		return TrackResult{}, ErrEmptyIP
	}

	var res TrackResult
	err := ldb.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureCategory(ctx, tx, category); err != nil {
			return err
		}
		if err := upsertMapping(ctx, tx, ip, category); err != nil {
			return err
		}

		queued, err := queryUnknownForIP(ctx, tx, ip)
		if err != nil {
			return err
		}
		for _, url := range queued {
			added, err := insertLink(ctx, tx, category, url)
			if err != nil {
				return err
			}
			if added {
				res.Added++
			}
		}
		res.Moved = len(queued)

		if _, err := tx.ExecContext(ctx, `DELETE FROM unknown_links WHERE ip = ?`, ip); err != nil {
			return fmt.Errorf("failed to clear unknown links for %s: %w", ip, err)
		}
		return nil
	})
	if err != nil {
		return TrackResult{}, err
	}
	return res, nil
}
