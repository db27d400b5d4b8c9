package database

import (
	"strings"
	"testing"
)

func TestMigrationFilesOrderedAndDistinct(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no embedded migrations found")
	}

	seen := make(map[string]bool)
	for i, file := range files {
		if !strings.HasSuffix(file, ".sql") {
			t.Errorf("file %s is not a .sql migration", file)
		}
		version := strings.TrimSuffix(file, ".sql")
		if seen[version] {
			t.Errorf("duplicate migration version %s", version)
		}
		seen[version] = true
		if i > 0 && files[i-1] >= file {
			t.Errorf("migrations out of order: %s before %s", files[i-1], file)
		}
	}
}
