package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Catalog:   CatalogConfig{Path: "data/products.jsonl"},
		Vector:    VectorConfig{Path: "data/products.idx", Dimensions: 384},
		Embedding: EmbeddingConfig{Model: "bge-small", BaseURL: "http://localhost:8081/v1"},
		Inference: InferenceConfig{
			NER:      EndpointConfig{URL: "http://localhost:8082"},
			Reranker: RerankerConfig{EndpointConfig: EndpointConfig{URL: "http://localhost:8083"}},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"missing catalog", func(c *Config) { c.Catalog.Path = "" }, "catalog.path"},
		{"missing dimensions", func(c *Config) { c.Vector.Dimensions = 0 }, "vector.dimensions"},
		{"missing index path", func(c *Config) { c.Vector.Path = "" }, "vector.path"},
		{"unknown driver", func(c *Config) { c.Vector.Driver = "faiss" }, "vector.driver"},
		{"redis without addrs", func(c *Config) { c.Vector.Driver = VectorDriverRedis }, "database.addrs"},
		{"missing model", func(c *Config) { c.Embedding.Model = "" }, "embedding.model"},
		{"dimension mismatch", func(c *Config) { c.Embedding.Dimensions = 768 }, "embedding.dimensions"},
		{"missing ner", func(c *Config) { c.Inference.NER.URL = "" }, "inference.ner.url"},
		{"missing reranker", func(c *Config) { c.Inference.Reranker.URL = "" }, "inference.reranker.url"},
		{"negative timeout", func(c *Config) { ms := -1; c.Search.RequestTimeoutMs = &ms }, "search.request_timeout_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidate_RedisDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Vector.Driver = VectorDriverRedis
	cfg.Vector.Path = ""
	cfg.Database.Addrs = []string{"localhost:6379"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Vector: VectorConfig{Dimensions: 384}}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Vector.Driver != VectorDriverMemory {
		t.Errorf("expected driver %q, got %q", VectorDriverMemory, cfg.Vector.Driver)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected embedding dimensions to follow vector, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Search.Candidates != 200 {
		t.Errorf("expected Candidates=200, got %d", cfg.Search.Candidates)
	}
	if cfg.Search.RequestTimeout() != 10*time.Second {
		t.Errorf("expected 10s request timeout, got %v", cfg.Search.RequestTimeout())
	}
	if cfg.Inference.Reranker.MaxBatch != 32 || cfg.Inference.Reranker.Workers != 4 {
		t.Errorf("unexpected reranker defaults: %+v", cfg.Inference.Reranker)
	}
	if cfg.Reload.Debounce() != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %v", cfg.Reload.Debounce())
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Vector: VectorConfig{Driver: VectorDriverRedis, KeyPrefix: "custom:"},
		Search: SearchConfig{Candidates: 50, RequestTimeoutMs: &zero},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Vector.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Vector.KeyPrefix)
	}
	if cfg.Search.Candidates != 50 {
		t.Errorf("expected Candidates=50, got %d", cfg.Search.Candidates)
	}
	if cfg.Search.RequestTimeout() != 0 {
		t.Errorf("explicit 0 must disable the deadline, got %v", cfg.Search.RequestTimeout())
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("PRODSEARCH_TEST_NER", "http://ner:80")
	data := []byte(`
http:
  port: 8080
catalog:
  path: products.jsonl
vector:
  path: products.idx
  dimensions: 8
embedding:
  model: ${PRODSEARCH_TEST_MODEL:-bge-small}
inference:
  ner:
    url: ${PRODSEARCH_TEST_NER}
  reranker:
    url: http://reranker:80
    max_batch: 16
search:
  request_timeout_ms: 0
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.Model != "bge-small" {
		t.Errorf("expected default model, got %q", cfg.Embedding.Model)
	}
	if cfg.Inference.NER.URL != "http://ner:80" {
		t.Errorf("expected env url, got %q", cfg.Inference.NER.URL)
	}
	if cfg.Inference.Reranker.URL != "http://reranker:80" || cfg.Inference.Reranker.MaxBatch != 16 {
		t.Errorf("unexpected reranker config: %+v", cfg.Inference.Reranker)
	}
	if cfg.Search.RequestTimeout() != 0 {
		t.Errorf("expected disabled timeout, got %v", cfg.Search.RequestTimeout())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
