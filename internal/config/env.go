package config

import (
	"strconv"
)

// Environment variables that override file settings.
const (
	EnvPort           = "ASKME_PORT"
	EnvEmbeddingKey   = "ASKME_EMBEDDING_API_KEY"
	EnvRerankEndpoint = "ASKME_RERANK_ENDPOINT"
)

// ApplyEnv overrides cfg from the environment. lookup is os.LookupEnv outside of tests.
// Unparseable values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPort); ok {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v, ok := lookup(EnvEmbeddingKey); ok && v != "" {
		cfg.Embedding.APIKey = v
	}
	if v, ok := lookup(EnvRerankEndpoint); ok {
		cfg.Rerank.Endpoint = v
	}
}
