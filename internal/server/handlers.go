package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/askme/internal/indexer"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/search"
	"github.com/hyperjump/askme/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	// multipart parts larger than this spill to temp files
	uploadMemory = 8 << 20
	// search request bodies are small JSON objects
	maxSearchBody = 1 << 20
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSearchBody)
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.search(w, r, &req)
}

// handleSearchQuery serves GET /api/v1/search?q=&limit=&team=&use_rerank=&use_query_enhance=
// &use_diversity=&recall_size=&fusion=&min_score=&explain=.
func (s *Server) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.search(w, r, req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req *models.SearchRequest) {
	if req.UseRerank == nil && !s.engine.HasReranker() {
		req.UseRerank = models.Bool(false)
	}
	s.logger.Debug("search request",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("query", req.Query),
		zap.Int("limit", req.Limit))

	resp, err := s.engine.Search(r.Context(), req)
	if err != nil {
		if search.KindOf(err) == search.KindInvalidQuery {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func parseSearchQuery(r *http.Request) (*models.SearchRequest, error) {
	q := r.URL.Query()
	req := &models.SearchRequest{
		Query:  q.Get("q"),
		Scope:  q.Get("team"),
		Fusion: q.Get("fusion"),
	}
	var err error
	if req.Limit, err = intParam(q.Get("limit")); err != nil {
		return nil, fmt.Errorf("limit: %w", err)
	}
	if req.RecallSize, err = intParam(q.Get("recall_size")); err != nil {
		return nil, fmt.Errorf("recall_size: %w", err)
	}
	if v := q.Get("min_score"); v != "" {
		if req.MinScore, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("min_score: %w", err)
		}
	}
	for name, dst := range map[string]**bool{
		"use_rerank":        &req.UseRerank,
		"use_query_enhance": &req.UseQueryEnhance,
		"use_diversity":     &req.UseDiversity,
	} {
		if *dst, err = boolParam(q.Get(name)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	explain, err := boolParam(q.Get("explain"))
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}
	req.Explain = explain != nil && *explain
	return req, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func boolParam(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// handleIndexDocuments accepts a single document object or an array of documents.
func (s *Server) handleIndexDocuments(w http.ResponseWriter, r *http.Request) {
	if limit := s.Config().Server.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var inputs []*models.DocumentInput
		if err := json.Unmarshal(body, &inputs); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.logger.Debug("index batch request", zap.Int("documents", len(inputs)))
		res, err := s.indexer.IndexBatch(r.Context(), inputs)
		if err != nil {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, res)
		return
	}

	var input models.DocumentInput
	if err := json.Unmarshal(body, &input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index document request", zap.String("id", input.ID), zap.String("filename", input.Filename))
	doc, err := s.indexer.IndexDocument(r.Context(), &input)
	if err != nil {
		if errors.Is(err, indexer.ErrEmptyContent) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

// handleUpload indexes a multipart "file" part; "team_id" is an optional form field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.Config().Server.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	s.logger.Debug("upload request", zap.String("filename", header.Filename), zap.Int64("size", header.Size))
	doc, err := s.indexer.IndexUpload(r.Context(), header.Filename, r.FormValue("team_id"), content, nil)
	if err != nil {
		if errors.Is(err, indexer.ErrEmptyContent) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("upload indexing failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"))
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	docs, err := s.storage.ListDocuments(r.Context(), q.Get("team"), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"offset":    offset,
		"limit":     limit,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.indexer.DeleteDocument(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := s.Config()

	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents":       docCount,
		"keyword_channel": s.engine.HasKeywordChannel(),
		"reranker":        s.engine.HasReranker(),
	}
	if s.vectors != nil {
		resp["vector_chunks"] = s.vectors.Count()
	}
	if s.keywords != nil {
		if n, err := s.keywords.DocCount(); err == nil {
			resp["keyword_chunks"] = n
		}
	}
	if s.rerank != nil {
		state := "ok"
		if err := s.rerank.HealthCheck(ctx); err != nil {
			state = err.Error()
		}
		resp["rerank_health"] = state
	}

	ranking := s.engine.Ranker().Config()
	resp["config"] = map[string]interface{}{
		"vector_store":         cfg.Vector.Type,
		"embedding_model":      cfg.Embedding.Model,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"chunk_size":           cfg.Indexer.ChunkSize,
		"chunk_overlap":        cfg.Indexer.ChunkOverlap,
		"fusion":               cfg.Search.Fusion,
		"ranking_weights":      ranking.Weights(),
	}

	usage, err := storage.DiskUsage(map[string]string{
		"database":      cfg.Storage.DatabasePath,
		"keyword_index": cfg.Storage.BleveIndexPath,
		"vector_index":  cfg.Storage.VectorIndexPath,
	})
	if err == nil {
		resp["disk_usage"] = usage
	} else {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
