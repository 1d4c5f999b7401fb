package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ScanReportRecord is a persisted scan report.
type ScanReportRecord struct {
	// ID is the database identifier.
	ID int64

	// RunID is the scan run identifier.
	RunID string

	// Timestamp is when the report was saved.
	Timestamp time.Time

	// Total is the number of distinct links in the run.
	Total int

	// Categorized is the number of links classified into a category.
	Categorized int

	// Unknown is the number of links at unmapped IPs.
	Unknown int

	// Text is the rendered plain-text report.
	Text string

	// JSON is the machine-readable report.
	JSON string

	// Digest is the hex SHA3-256 digest of Text.
	Digest string
}

// ScanReportMetadata contains summary information about a scan report.
// This is used for listing scan history without loading the full report.
type ScanReportMetadata struct {
	ID          int64
	RunID       string
	Timestamp   time.Time
	Total       int
	Categorized int
	Unknown     int
	Digest      string
}

// SaveScanReport stores a rendered report and returns its ID.
func (ldb *LinkDB) SaveScanReport(ctx context.Context, rec *ScanReportRecord) (int64, error) {
	result, err := ldb.db.ExecContext(ctx, `
	INSERT INTO scan_reports (run_id, total, categorized, unknown, report_text, report_json, digest)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.Total,
		rec.Categorized,
		rec.Unknown,
		rec.Text,
		rec.JSON,
		rec.Digest,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan report: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to save scan report: %w", err)
	}
	rec.ID = id
	return id, nil
}

const reportColumns = `id, run_id, timestamp, total, categorized, unknown, report_text, report_json, digest`

func scanReport(row *sql.Row) (*ScanReportRecord, error) {
	var rec ScanReportRecord
	var timestamp string
	err := row.Scan(
		&rec.ID,
		&rec.RunID,
		&timestamp,
		&rec.Total,
		&rec.Categorized,
		&rec.Unknown,
		&rec.Text,
		&rec.JSON,
		&rec.Digest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	rec.Timestamp = parseTimestamp(timestamp)
	return &rec, nil
}

// LatestScanReport returns the most recently saved report, or nil when no
// scan has been saved yet.
func (ldb *LinkDB) LatestScanReport(ctx context.Context) (*ScanReportRecord, error) {
	row := ldb.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM scan_reports ORDER BY id DESC LIMIT 1`)
	return scanReport(row)
}

// GetScanReportByID returns the report with the given ID, or nil when it
// does not exist.
func (ldb *LinkDB) GetScanReportByID(ctx context.Context, id int64) (*ScanReportRecord, error) {
	row := ldb.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM scan_reports WHERE id = ?`, id)
	return scanReport(row)
}

// ListScanReports returns metadata of saved reports, newest first.
// A limit of zero or less returns every report.
func (ldb *LinkDB) ListScanReports(ctx context.Context, limit int) ([]ScanReportMetadata, error) {
	query := `
	SELECT id, run_id, timestamp, total, categorized, unknown, digest
	FROM scan_reports
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := ldb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan reports: %w", err)
	}
	defer rows.Close()

	var results []ScanReportMetadata
	for rows.Next() {
		var meta ScanReportMetadata
		var timestamp string
		if err := rows.Scan(
			&meta.ID,
			&meta.RunID,
			&timestamp,
			&meta.Total,
			&meta.Categorized,
			&meta.Unknown,
			&meta.Digest,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}
	return results, rows.Err()
}
