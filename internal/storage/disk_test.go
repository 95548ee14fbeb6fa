package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	f1 := filepath.Join(dir, "f1.txt")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644)
	_ = os.WriteFile(filepath.Join(sub, "b"), []byte("c"), 0644)

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{f1}, 5},
		{"directory", []string{sub}, 3},
		{"file and dir", []string{f1, sub}, 8},
		{"missing skipped", []string{f1, filepath.Join(dir, "nonexistent"), sub}, 8},
		{"empty and memory skipped", []string{"", ":memory:", f1}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "askme.db")
	_ = os.WriteFile(db, []byte("1234"), 0644)

	u, err := DiskUsage(map[string]string{"database": db, "keyword_index": filepath.Join(dir, "none")})
	if err != nil {
		t.Fatal(err)
	}
	if u.TotalBytes != 4 || u.Components["database"] != 4 || u.Components["keyword_index"] != 0 {
		t.Errorf("usage = %+v", u)
	}
}
