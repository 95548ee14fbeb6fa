package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hyperjump/askme/internal/fileid"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/storage"
	"github.com/hyperjump/askme/internal/watcher"
	"go.uber.org/zap"
)

const (
	metaSourcePath  = "source_path"
	metaSourceMtime = "source_mtime"
	metaSourceSize  = "source_size"
)

// maxJSONLLine bounds one JSONL record.
const maxJSONLLine = 16 << 20

// IndexFile extracts the file at path and indexes it under a path-derived id, so indexing the
// same file again replaces it. Unchanged files (same mtime and size) are skipped and their
// stored document returned.
func (idx *Indexer) IndexFile(ctx context.Context, path, teamID string) (*models.Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	docID := fileid.FromPath(absPath)
	if doc, ok := idx.unchanged(ctx, docID, absPath, info); ok {
		idx.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		return doc, nil
	}

	extracted, err := idx.extractor.Extract(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	return idx.IndexDocument(ctx, &models.DocumentInput{
		ID:       docID,
		Filename: filepath.Base(absPath),
		TeamID:   teamID,
		Content:  extracted.Text,
		Metadata: withFormat(map[string]interface{}{
			metaSourcePath: absPath,
			// Strings: UnixNano does not survive a JSON float64 round trip.
			metaSourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaSourceSize:  strconv.FormatInt(info.Size(), 10),
		}, extracted.Format),
	})
}

func (idx *Indexer) unchanged(ctx context.Context, docID, absPath string, info os.FileInfo) (*models.Document, bool) {
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return nil, false
	}
	if doc.Metadata[metaSourcePath] != absPath {
		return nil, false
	}
	mtime, _ := doc.Metadata[metaSourceMtime].(string)
	size, _ := doc.Metadata[metaSourceSize].(string)
	return doc, mtime == strconv.FormatInt(info.ModTime().UnixNano(), 10) &&
		size == strconv.FormatInt(info.Size(), 10)
}

// RemoveFile deletes the document indexed from path. Unknown files are ignored.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	id, err := fileid.ForFile(path)
	if err != nil {
		return err
	}
	if err := idx.DeleteDocument(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// ReadJSONL decodes one DocumentInput per non-blank line.
func ReadJSONL(r io.Reader) ([]*models.DocumentInput, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	var out []*models.DocumentInput
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var in models.DocumentInput
		if err := json.Unmarshal([]byte(text), &in); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, &in)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return out, nil
}

// IndexJSONL indexes every record of a JSONL stream.
func (idx *Indexer) IndexJSONL(ctx context.Context, r io.Reader) (*BatchResult, error) {
	inputs, err := ReadJSONL(r)
	if err != nil {
		return nil, err
	}
	return idx.IndexBatch(ctx, inputs)
}

// IndexDirectory indexes every regular file under dir whose extension is allowed (all files
// when exts is empty). Files in a first-level subdirectory get that subdirectory's name as
// team id.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, exts []string, recursive bool) (*BatchResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != absDir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if extensionAllowed(filepath.Ext(path), exts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absDir, err)
	}

	docs := make([]*models.Document, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		if err := idx.pool.Submit(func() {
			defer wg.Done()
			docs[i], errs[i] = idx.IndexFile(ctx, path, TeamFromPath(absDir, path))
		}); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	res := &BatchResult{Indexed: make([]*models.Document, 0, len(paths))}
	for i, err := range errs {
		if err != nil {
			res.Failed = append(res.Failed, BatchError{Index: i, ID: paths[i], Err: err.Error()})
			idx.logger.Warn("file not indexed", zap.String("path", paths[i]), zap.Error(err))
			continue
		}
		res.Indexed = append(res.Indexed, docs[i])
	}
	return res, ctx.Err()
}

// TeamFromPath returns the first directory of path below root, or "" for files directly in
// root.
func TeamFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// WatchHandler returns a watcher handler that indexes changed files and removes deleted ones.
// roots are the watched directories, used to derive team ids.
func (idx *Indexer) WatchHandler(ctx context.Context, roots []string) watcher.Handler {
	return func(ev watcher.Event) {
		if ev.Op == watcher.OpRemoved {
			if err := idx.RemoveFile(ctx, ev.Path); err != nil {
				idx.logger.Warn("failed to remove watched file", zap.String("path", ev.Path), zap.Error(err))
			}
			return
		}
		team := ""
		for _, root := range roots {
			if abs, err := filepath.Abs(root); err == nil {
				if t := TeamFromPath(abs, ev.Path); t != "" {
					team = t
					break
				}
			}
		}
		if _, err := idx.IndexFile(ctx, ev.Path, team); err != nil {
			idx.logger.Warn("failed to index watched file", zap.String("path", ev.Path), zap.Error(err))
			return
		}
		idx.logger.Info("indexed watched file", zap.String("path", ev.Path), zap.String("team_id", team))
	}
}
