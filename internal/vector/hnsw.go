package vector

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/pkg/utils"
)

// HNSWConfig tunes the in-process HNSW graph.
type HNSWConfig struct {
	Dimensions int
	M          int
	EfSearch   int
}

// HNSWStore is an approximate store backed by a pure Go HNSW graph. Replaced and deleted
// chunks are orphaned in the graph and skipped at search time.
type HNSWStore struct {
	mu      sync.RWMutex
	cfg     HNSWConfig
	graph   *hnsw.Graph[uint64]
	records map[uint64]*record
	keys    map[string]uint64 // chunk id -> graph key
	nextKey uint64
	closed  bool
}

// NewHNSWStore creates an empty graph store.
func NewHNSWStore(cfg HNSWConfig) (*HNSWStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}
	return &HNSWStore{
		cfg:     cfg,
		graph:   newGraph(cfg),
		records: make(map[uint64]*record),
		keys:    make(map[string]uint64),
	}, nil
}

func newGraph(cfg HNSWConfig) *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = cfg.M
	g.EfSearch = cfg.EfSearch
	g.Ml = 0.25
	return g
}

// Upsert adds chunks; an existing chunk id is re-keyed and its old node orphaned.
func (s *HNSWStore) Upsert(ctx context.Context, chunks []*models.DocumentChunk) error {
	for _, c := range chunks {
		if err := checkDims(s.cfg.Dimensions, c.Embedding); err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, c := range chunks {
		if old, ok := s.keys[c.ID]; ok {
			delete(s.records, old)
		}
		rec := newRecord(c)
		utils.NormalizeL2(rec.Vector)

		key := s.nextKey
		s.nextKey++
		s.graph.Add(hnsw.MakeNode(key, rec.Vector))
		s.records[key] = rec
		s.keys[c.ID] = key
	}
	return nil
}

// Search queries the graph, widening the candidate pool until topK filtered live hits are
// found or the whole graph has been considered.
func (s *HNSWStore) Search(ctx context.Context, query []float32, topK int, filter *Filter) ([]*Hit, error) {
	if err := checkDims(s.cfg.Dimensions, query); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	total := s.graph.Len()
	if topK <= 0 || total == 0 || len(s.records) == 0 {
		return []*Hit{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	utils.NormalizeL2(q)

	k := topK
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if k > total {
			k = total
		}
		hits := s.collect(q, k, filter)
		if len(hits) >= topK || k == total {
			if len(hits) > topK {
				hits = hits[:topK]
			}
			return hits, nil
		}
		k *= 4
	}
}

func (s *HNSWStore) collect(q []float32, k int, filter *Filter) []*Hit {
	nodes := s.graph.Search(q, k)
	hits := make([]*Hit, 0, len(nodes))
	for _, n := range nodes {
		rec, ok := s.records[n.Key]
		if !ok || !filter.Matches(rec.TeamID) {
			continue
		}
		hits = append(hits, rec.hit(1-float64(s.graph.Distance(q, n.Value))))
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// DeleteDocument orphans every chunk of documentID.
func (s *HNSWStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rec := range s.records {
		if rec.DocumentID == documentID {
			delete(s.records, key)
			delete(s.keys, rec.ChunkID)
		}
	}
	return nil
}

// Count returns the number of live chunks.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

type hnswMeta struct {
	Dimensions int                `json:"dimensions"`
	NextKey    uint64             `json:"next_key"`
	Records    map[uint64]*record `json:"records"`
}

// Save exports the graph to path and the chunk payloads to path+".meta".
func (s *HNSWStore) Save(path string) error {
	if path == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := s.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}

	data, err := json.Marshal(hnswMeta{Dimensions: s.cfg.Dimensions, NextKey: s.nextKey, Records: s.records})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta.tmp", data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return os.Rename(path+".meta.tmp", path+".meta")
}

// Load restores a graph saved with Save. A missing index is not an error.
func (s *HNSWStore) Load(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read metadata: %w", err)
	}
	var meta hnswMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	if meta.Dimensions != s.cfg.Dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, store expects %d", meta.Dimensions, s.cfg.Dimensions)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	g := newGraph(s.cfg)
	if err := g.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g
	s.nextKey = meta.NextKey
	s.records = meta.Records
	if s.records == nil {
		s.records = make(map[uint64]*record)
	}
	s.keys = make(map[string]uint64, len(s.records))
	for key, rec := range s.records {
		s.keys[rec.ChunkID] = key
	}
	return nil
}

// Close releases the graph.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.graph = nil
	return nil
}
