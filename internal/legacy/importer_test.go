package legacy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/proxysort/internal/database"
	"github.com/nao1215/proxysort/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// legacyDir creates a directory laid out like the bot's Proxys directory.
func legacyDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, dir, MappingFile, `{"10.0.0.1": "CatA", "10.0.0.2": "CatB"}`)
	writeFile(t, dir, UnknownFile, `{"10.0.0.9": ["https://u1.example.com", "https://u2.example.com"]}`)
	writeFile(t, dir, "CatA.json", `["https://a1.example.com", "https://a2.example.com", "https://a1.example.com"]`)
	writeFile(t, dir, "CatB.json", `[]`)
	writeFile(t, dir, "scan_results.txt", "**Scanned Links**\n")
	writeFile(t, dir, "get_links.txt", "https://a1.example.com")
	return dir
}

func openDB(t *testing.T) *database.LinkDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestImporter_Import tests importing a full legacy directory.
func TestImporter_Import(t *testing.T) {
	t.Parallel()

	db := openDB(t)
	ctx := context.Background()

	sum, err := NewImporter(db).Import(ctx, legacyDir(t))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	want := &Summary{
		Mappings:   2,
		Categories: 2,
		Links:      2,
		Unknown:    2,
		Ignored:    []string{"get_links.txt", "scan_results.txt"},
	}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	mapping, err := db.Mapping(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"10.0.0.1": "CatA", "10.0.0.2": "CatB"}, mapping); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}

	links, err := db.CategoryLinks(ctx, "CatA")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"https://a1.example.com", "https://a2.example.com"}, links); diff != "" {
		t.Errorf("CatA links mismatch (-want +got):\n%s", diff)
	}

	exists, err := db.CategoryExists(ctx, "CatB")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("empty category file should still create the category")
	}

	unknown, err := db.UnknownLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantUnknown := []model.LinkGroup{
		{Key: "10.0.0.9", Links: []string{"https://u1.example.com", "https://u2.example.com"}},
	}
	if diff := cmp.Diff(wantUnknown, unknown); diff != "" {
		t.Errorf("unknown mismatch (-want +got):\n%s", diff)
	}
}

// TestImporter_Idempotent tests that a second import adds nothing.
func TestImporter_Idempotent(t *testing.T) {
	t.Parallel()

	db := openDB(t)
	dir := legacyDir(t)
	imp := NewImporter(db)

	if _, err := imp.Import(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	sum, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if sum.Links != 0 || sum.Unknown != 0 {
		t.Errorf("second import added links: %+v", sum)
	}

	n, err := db.CategoryCount(context.Background(), "CatA")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CatA count = %d, want 2", n)
	}
}

// TestImporter_Errors tests invalid sources.
func TestImporter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "source is a file",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "CatA.json", "[]")
				return filepath.Join(dir, "CatA.json")
			},
			wantErr: ErrNotDirectory,
		},
		{
			name: "category file is not a list",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "CatA.json", `{"not": "a list"}`)
				return dir
			},
			wantErr: ErrMalformedFile,
		},
		{
			name: "mapping file is broken",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, MappingFile, `{"10.0.0.1": `)
				return dir
			},
			wantErr: ErrMalformedFile,
		},
		{
			name: "source does not exist",
			setup: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "missing")
			},
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewImporter(openDB(t)).Import(context.Background(), tt.setup(t))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Import() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
