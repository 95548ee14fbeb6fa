package storage

import (
	"os"
	"path/filepath"
	"sort"
)

// Usage is the on-disk footprint of the service's data files.
type Usage struct {
	TotalBytes int64            `json:"total_bytes"`
	Components map[string]int64 `json:"components"`
}

// DiskUsage measures each named path (database, keyword index, vector snapshot). Empty and
// missing paths count as 0.
func DiskUsage(paths map[string]string) (*Usage, error) {
	u := &Usage{Components: make(map[string]int64, len(paths))}
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n, err := DiskUsageBytes(paths[name])
		if err != nil {
			return nil, err
		}
		u.Components[name] = n
		u.TotalBytes += n
	}
	return u, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths are skipped; errors during walk are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" || p == ":memory:" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.Walk(p, func(_ string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				total += fi.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
