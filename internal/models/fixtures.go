package models

import (
	"os"
	"path/filepath"
	"testing"
)

// FixturePath returns the absolute path of a sample feed in the repository's
// testdata directory. Callers must sit two levels below the root.
func FixturePath(t *testing.T, name string) string {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	if err != nil {
		t.Fatalf("failed to resolve testdata/%s: %v", name, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		t.Fatalf("missing fixture testdata/%s: %v", name, err)
	}
	return absPath
}
