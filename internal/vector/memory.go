package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/askme/internal/models"
)

// MemoryStore is an in-memory store using brute-force cosine similarity.
// Suitable for tests and small corpora.
type MemoryStore struct {
	dimensions int
	records    map[string]*record // by chunk id
	mu         sync.RWMutex
	closed     bool
}

// NewMemoryStore creates an in-memory store with the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		records:    make(map[string]*record),
	}, nil
}

// Upsert adds or replaces chunks by chunk id.
func (m *MemoryStore) Upsert(ctx context.Context, chunks []*models.DocumentChunk) error {
	for _, c := range chunks {
		if err := checkDims(m.dimensions, c.Embedding); err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, c := range chunks {
		m.records[c.ID] = newRecord(c)
	}
	return nil
}

// Search scans every record passing filter and returns the topK most similar.
func (m *MemoryStore) Search(ctx context.Context, query []float32, topK int, filter *Filter) ([]*Hit, error) {
	if err := checkDims(m.dimensions, query); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if topK <= 0 || len(m.records) == 0 {
		return []*Hit{}, nil
	}

	hits := make([]*Hit, 0, len(m.records))
	for _, r := range m.records {
		if !filter.Matches(r.TeamID) {
			continue
		}
		hits = append(hits, r.hit(Cosine(query, r.Vector)))
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteDocument removes every chunk of documentID.
func (m *MemoryStore) DeleteDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.records {
		if r.DocumentID == documentID {
			delete(m.records, id)
		}
	}
	return nil
}

// Count returns the number of stored chunks.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Save writes a JSON snapshot to path. Directory is created if needed.
func (m *MemoryStore) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	recs := make([]*record, 0, len(m.records))
	for _, r := range m.records {
		recs = append(recs, r)
	}
	m.mu.RUnlock()
	sort.Slice(recs, func(i, j int) bool { return recs[i].ChunkID < recs[j].ChunkID })

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.Marshal(snapshot{Dimensions: m.dimensions, Records: recs})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load replaces the contents with the snapshot at path. A missing file is not an error.
func (m *MemoryStore) Load(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Dimensions != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, store expects %d", snap.Dimensions, m.dimensions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*record, len(snap.Records))
	for _, r := range snap.Records {
		m.records[r.ChunkID] = r
	}
	return nil
}

// Close releases the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}

type snapshot struct {
	Dimensions int       `json:"dimensions"`
	Records    []*record `json:"records"`
}
