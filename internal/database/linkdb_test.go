package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/proxysort/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *LinkDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(filepath.Join(t.TempDir(), "missing"), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopening keeps data", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.AppendLink(context.Background(), "CatX", "https://a.com"); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer db.Close()

		links, err := db.CategoryLinks(context.Background(), "CatX")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"https://a.com"}, links); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestLinkDB_AppendLink tests idempotent appends.
func TestLinkDB_AppendLink(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	added, err := db.AppendLink(ctx, "CatX", "https://a.com")
	if err != nil || !added {
		t.Fatalf("first AppendLink() = %v, %v; want true, nil", added, err)
	}
	added, err = db.AppendLink(ctx, "CatX", "https://a.com")
	if err != nil || added {
		t.Fatalf("second AppendLink() = %v, %v; want false, nil", added, err)
	}
	if _, err := db.AppendLink(ctx, "CatX", "https://b.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AppendLink(ctx, "CatY", "https://a.com"); err != nil {
		t.Fatal(err)
	}

	count, err := db.CategoryCount(ctx, "CatX")
	if err != nil || count != 2 {
		t.Errorf("CategoryCount() = %d, %v; want 2", count, err)
	}
	links, err := db.CategoryLinks(ctx, "CatX")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"https://a.com", "https://b.com"}, links); diff != "" {
		t.Errorf("CategoryLinks() mismatch (-want +got):\n%s", diff)
	}

	if _, err := db.AppendLink(ctx, " ", "https://c.com"); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("empty category error = %v, want ErrEmptyCategory", err)
	}
}

// TestLinkDB_Categories tests category existence and summaries.
func TestLinkDB_Categories(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	exists, err := db.CategoryExists(ctx, "Empty")
	if err != nil || exists {
		t.Fatalf("CategoryExists() before = %v, %v", exists, err)
	}
	if err := db.EnsureCategory(ctx, "Empty"); err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureCategory(ctx, "Empty"); err != nil {
		t.Fatalf("EnsureCategory() should be idempotent: %v", err)
	}
	exists, err = db.CategoryExists(ctx, "Empty")
	if err != nil || !exists {
		t.Fatalf("CategoryExists() after = %v, %v", exists, err)
	}

	if err := db.SetMapping(ctx, "2.2.2.2", "CatX"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMapping(ctx, "1.1.1.1", "CatX"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AppendLink(ctx, "CatX", "https://a.com"); err != nil {
		t.Fatal(err)
	}

	got, err := db.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []CategorySummary{
		{Name: "CatX", Links: 1, IPs: []string{"1.1.1.1", "2.2.2.2"}},
		{Name: "Empty", Links: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
}

// TestLinkDB_Mapping tests mapping reads and overwrites.
func TestLinkDB_Mapping(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetMapping(ctx, "1.2.3.4", "CatX"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMapping(ctx, "1.2.3.4", "CatY"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMapping(ctx, "5.6.7.8", "CatY"); err != nil {
		t.Fatal(err)
	}

	got, err := db.Mapping(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"1.2.3.4": "CatY", "5.6.7.8": "CatY"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Mapping() mismatch (-want +got):\n%s", diff)
	}

	if err := db.SetMapping(ctx, "", "CatX"); !errors.Is(err, ErrEmptyIP) {
		t.Errorf("empty ip error = %v, want ErrEmptyIP", err)
	}
}

// TestLinkDB_MergeUnknown tests that the Unknown Bucket is a union across runs.
func TestLinkDB_MergeUnknown(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	n, err := db.MergeUnknown(ctx, []model.LinkGroup{
		{Key: "9.9.9.9", Links: []string{"https://a.com"}},
		{Key: "8.8.8.8", Links: []string{"https://z.com"}},
	})
	if err != nil || n != 2 {
		t.Fatalf("first MergeUnknown() = %d, %v", n, err)
	}
	n, err = db.MergeUnknown(ctx, []model.LinkGroup{
		{Key: "9.9.9.9", Links: []string{"https://b.com", "https://a.com"}},
	})
	if err != nil || n != 1 {
		t.Fatalf("second MergeUnknown() = %d, %v", n, err)
	}

	got, err := db.UnknownLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []model.LinkGroup{
		{Key: "9.9.9.9", Links: []string{"https://a.com", "https://b.com"}},
		{Key: "8.8.8.8", Links: []string{"https://z.com"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UnknownLinks() mismatch (-want +got):\n%s", diff)
	}

	if _, err := db.MergeUnknown(ctx, []model.LinkGroup{{Key: "", Links: []string{"x"}}}); !errors.Is(err, ErrEmptyIP) {
		t.Errorf("empty key error = %v, want ErrEmptyIP", err)
	}
}

// TestLinkDB_TrackIP tests migration of queued links into a category.
func TestLinkDB_TrackIP(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.AppendLink(ctx, "NewCat", "https://a.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.MergeUnknown(ctx, []model.LinkGroup{
		{Key: "9.9.9.9", Links: []string{"https://a.com", "https://b.com"}},
		{Key: "7.7.7.7", Links: []string{"https://c.com"}},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := db.TrackIP(ctx, "9.9.9.9", "NewCat")
	if err != nil {
		t.Fatalf("TrackIP() error = %v", err)
	}
	if diff := cmp.Diff(TrackResult{Moved: 2, Added: 1}, res); diff != "" {
		t.Errorf("TrackIP() mismatch (-want +got):\n%s", diff)
	}

	mapping, err := db.Mapping(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if mapping["9.9.9.9"] != "NewCat" {
		t.Errorf("mapping = %v", mapping)
	}

	links, err := db.CategoryLinks(ctx, "NewCat")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"https://a.com", "https://b.com"}, links); diff != "" {
		t.Errorf("CategoryLinks() mismatch (-want +got):\n%s", diff)
	}

	queued, err := queryUnknownForIP(ctx, db.db, "9.9.9.9")
	if err != nil || len(queued) != 0 {
		t.Errorf("queued links for tracked IP = %v, %v; want empty", queued, err)
	}
	other, err := queryUnknownForIP(ctx, db.db, "7.7.7.7")
	if err != nil || len(other) != 1 {
		t.Errorf("other IP should be untouched, got %v, %v", other, err)
	}

	res, err = db.TrackIP(ctx, "1.1.1.1", "Fresh")
	if err != nil || res.Moved != 0 {
		t.Errorf("TrackIP() with nothing queued = %+v, %v", res, err)
	}
	if exists, _ := db.CategoryExists(ctx, "Fresh"); !exists {
		t.Error("tracking should record the category")
	}
}

// TestLinkDB_ScanReports tests saving and loading reports.
func TestLinkDB_ScanReports(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	latest, err := db.LatestScanReport(ctx)
	if err != nil || latest != nil {
		t.Fatalf("LatestScanReport() on empty db = %v, %v", latest, err)
	}

	first := &ScanReportRecord{RunID: "run-1", Total: 3, Categorized: 2, Unknown: 1, Text: "one", JSON: "{}", Digest: "d1"}
	id1, err := db.SaveScanReport(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != id1 {
		t.Errorf("record ID = %d, want %d", first.ID, id1)
	}
	second := &ScanReportRecord{RunID: "run-2", Text: "two", JSON: "{}", Digest: "d2"}
	if _, err := db.SaveScanReport(ctx, second); err != nil {
		t.Fatal(err)
	}

	latest, err = db.LatestScanReport(ctx)
	if err != nil || latest == nil {
		t.Fatalf("LatestScanReport() = %v, %v", latest, err)
	}
	if latest.RunID != "run-2" || latest.Text != "two" {
		t.Errorf("latest = %+v", latest)
	}
	if latest.Timestamp.IsZero() {
		t.Error("timestamp should be parsed")
	}

	got, err := db.GetScanReportByID(ctx, id1)
	if err != nil || got == nil {
		t.Fatalf("GetScanReportByID() = %v, %v", got, err)
	}
	if got.Total != 3 || got.Categorized != 2 || got.Unknown != 1 || got.Digest != "d1" {
		t.Errorf("report = %+v", got)
	}

	missing, err := db.GetScanReportByID(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("GetScanReportByID(999) = %v, %v", missing, err)
	}

	list, err := db.ListScanReports(ctx, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListScanReports() = %v, %v", list, err)
	}
	if list[0].RunID != "run-2" {
		t.Errorf("list should be newest first, got %s", list[0].RunID)
	}
	limited, err := db.ListScanReports(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("ListScanReports(1) = %v, %v", limited, err)
	}

	if _, err := db.SaveScanReport(ctx, &ScanReportRecord{RunID: "run-1", Text: "x", JSON: "{}", Digest: "x"}); err == nil {
		t.Error("duplicate run id should fail")
	}
}

// TestParseTimestamp tests timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantZero bool
	}{
		{input: "2024-01-15 10:30:00"},
		{input: "2024-01-15T10:30:00Z"},
		{input: "2024-01-15T10:30:00.123456789Z"},
		{input: "not a timestamp", wantZero: true},
		{input: "", wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); got.IsZero() != tt.wantZero {
				t.Errorf("parseTimestamp(%q) zero = %v, want %v", tt.input, got.IsZero(), tt.wantZero)
			}
		})
	}
}
