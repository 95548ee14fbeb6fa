package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIEmbedder_EmbedBatchOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// answer in reverse order
		data := make([]map[string]interface{}, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "bge-m3", Dimensions: 2})
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v[0] != float32(i) {
			t.Errorf("out[%d] = %v", i, v)
		}
	}
	if e.ModelName() != "bge-m3" || e.Dimensions() != 2 {
		t.Error("unexpected model metadata")
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "m"})
	if _, err := e.Embed(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	e := NewOpenAIEmbedder(OpenAIConfig{Model: "m"})
	out, err := e.EmbedBatch(context.Background(), nil)
	if err != nil || len(out) != 0 {
		t.Errorf("got %v, %v", out, err)
	}
}
