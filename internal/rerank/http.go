package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/askme/pkg/utils"
)

// Defaults for the HTTP reranker.
const (
	DefaultEndpoint = "http://localhost:8080"
	DefaultModel    = "BAAI/bge-reranker-large"
	DefaultTimeout  = 10 * time.Second
	// DefaultMaxResponseBytes caps the rerank response body read.
	DefaultMaxResponseBytes = 16 << 20
)

// Score normalization modes.
const (
	NormalizeNone    = "none"
	NormalizeSigmoid = "sigmoid"
)

// HTTPConfig holds configuration for an HTTP cross-encoder server.
type HTTPConfig struct {
	// Endpoint is the server base URL; requests go to Endpoint+"/rerank".
	Endpoint string
	Model    string
	// Normalize is "sigmoid" when the server returns raw logits, "none" otherwise.
	Normalize string
	Timeout   time.Duration
	// MaxResponseBytes bounds the response body; <= 0 uses DefaultMaxResponseBytes.
	MaxResponseBytes int64
	Logger           *zap.Logger
}

// HTTPClient calls a /rerank endpoint. It accepts both the TEI response shape (a bare array of
// {index, score}) and the Jina/Cohere shape ({"results": [{index, relevance_score}]}).
type HTTPClient struct {
	client *http.Client
	cfg    HTTPConfig
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewHTTPClient creates a reranker client. It does not contact the server.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		cfg:    cfg,
		logger: logger,
	}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Texts     []string `json:"texts"`
	Model     string   `json:"model,omitempty"`
}

type rerankItem struct {
	Index          int      `json:"index"`
	Score          *float64 `json:"score"`
	RelevanceScore *float64 `json:"relevance_score"`
}

func (it rerankItem) value() float64 {
	if it.RelevanceScore != nil {
		return *it.RelevanceScore
	}
	if it.Score != nil {
		return *it.Score
	}
	return 0
}

// Score posts one batched request and returns scores in passage order.
func (c *HTTPClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("reranker is closed")
	}
	if len(passages) == 0 {
		return []float64{}, nil
	}

	body, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: passages,
		Texts:     passages,
		Model:     c.cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w", err)
	}
	if int64(len(raw)) > c.cfg.MaxResponseBytes {
		return nil, fmt.Errorf("%w: rerank response exceeds %d bytes", ErrResponseTooLarge, c.cfg.MaxResponseBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank failed (status %d): %s", resp.StatusCode, utils.Truncate(string(raw), 200))
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	scores, err := c.order(items, len(passages))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("rerank done",
		zap.Int("passages", len(passages)),
		zap.Duration("took", time.Since(start)))
	return scores, nil
}

func decodeItems(raw []byte) ([]rerankItem, error) {
	trimmed := bytes.TrimSpace(raw)
	var items []rerankItem
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode rerank response: %w", err)
		}
		return items, nil
	}
	var wrapped struct {
		Results []rerankItem `json:"results"`
		Data    []rerankItem `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	if wrapped.Results != nil {
		return wrapped.Results, nil
	}
	return wrapped.Data, nil
}

// order places each score at its reported index. Every index in [0,n) must appear exactly once.
func (c *HTTPClient) order(items []rerankItem, n int) ([]float64, error) {
	if len(items) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(items), n)
	}
	scores := make([]float64, n)
	seen := make([]bool, n)
	for _, it := range items {
		if it.Index < 0 || it.Index >= n || seen[it.Index] {
			return nil, fmt.Errorf("rerank response has invalid or repeated index %d", it.Index)
		}
		seen[it.Index] = true
		s := it.value()
		if c.cfg.Normalize == NormalizeSigmoid {
			s = utils.Sigmoid(s)
		}
		scores[it.Index] = s
	}
	return scores, nil
}

// HealthCheck verifies the server answers GET /health with 200.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to reranker: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reranker unhealthy (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if t, ok := c.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}
