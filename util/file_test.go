package util

import (
	"path/filepath"
	"testing"
)

func TestAppendAndReadLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		t.Fatalf("failed to create dir: %s", err)
	}
	if err := WriteToFile(path, "a", "b"); err != nil {
		t.Fatalf("failed to write: %s", err)
	}
	if err := AppendToFile(path, "c", ""); err != nil {
		t.Fatalf("failed to append: %s", err)
	}
	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("failed to read: %s", err)
	}
	expected := []string{"a", "b", "c"}
	if len(lines) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, lines)
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d: expected %s, got %s", i, expected[i], lines[i])
		}
	}
}
