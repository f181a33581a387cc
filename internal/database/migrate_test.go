package database

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	up := ExtractUpMigration(content)
	if !strings.Contains(up, "CREATE TABLE a") || strings.Contains(up, "DROP TABLE") {
		t.Fatalf("unexpected up section %q", up)
	}
	if got := ExtractUpMigration("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("expected whole file without markers, got %q", got)
	}
}

func TestMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_b.sql":  {Data: []byte("SELECT 2;")},
		"m/001_a.sql":  {Data: []byte("SELECT 1;")},
		"m/readme.txt": {Data: []byte("ignored")},
	}
	files, err := migrationFiles(fsys, "m")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0] != "001_a.sql" || files[1] != "002_b.sql" {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestEmbeddedSchemaHasUniquePairIndex(t *testing.T) {
	files, err := migrationFiles(migrationFS, "migrations")
	if err != nil || len(files) == 0 {
		t.Fatalf("expected embedded migrations, got %v (%v)", files, err)
	}
	raw, err := migrationFS.ReadFile("migrations/" + files[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "UNIQUE INDEX IF NOT EXISTS applications_job_candidate_uidx ON applications (job_id, candidate_id)") {
		t.Fatal("expected unique (job_id, candidate_id) index")
	}
}
