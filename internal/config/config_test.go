package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/course-assistant/internal/core/usecase"
)

// isolate points the file layers at an empty temp dir so a developer's .env
// never leaks into assertions.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	for _, key := range []string{"RAG_TOP_K", "RAG_RELEVANCE_THRESHOLD", "LLM_BASE_URL", "LLM_RETRY_JITTER", "VECTOR_BACKEND", "QUERY_DENY_PATTERNS", "RAG_CONTEXT_SEPARATOR"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.RAGRelevanceThreshold != 0.7 {
		t.Fatalf("expected default threshold 0.7, got %v", cfg.RAGRelevanceThreshold)
	}
	if cfg.LLMBaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("unexpected default llm base url %q", cfg.LLMBaseURL)
	}
	if cfg.LLMRetryJitter != 250*time.Millisecond {
		t.Fatalf("unexpected default jitter %v", cfg.LLMRetryJitter)
	}
	if cfg.VectorBackend != "qdrant" {
		t.Fatalf("unexpected default vector backend %q", cfg.VectorBackend)
	}
	if len(cfg.QueryDenyPatterns) != len(usecase.DefaultDenyPatterns) {
		t.Fatalf("expected built-in deny patterns, got %v", cfg.QueryDenyPatterns)
	}
	if cfg.RAGContextSeparator != usecase.DefaultContextSeparator {
		t.Fatalf("unexpected separator %q", cfg.RAGContextSeparator)
	}
}

func TestLoadParsesEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("RAG_TOP_K", "8")
	t.Setenv("RAG_RELEVANCE_THRESHOLD", "0.55")
	t.Setenv("RAG_RERANK_ENABLED", "true")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("QUERY_DENY_PATTERNS", "foo, bar ,,")
	t.Setenv("RAG_CONTEXT_SEPARATOR", `\n===\n`)

	cfg := Load()
	if cfg.RAGTopK != 8 || cfg.RAGRelevanceThreshold != 0.55 || !cfg.RAGRerankEnabled {
		t.Fatalf("unexpected retrieval overrides %+v", cfg)
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %v", cfg.LLMTimeout)
	}
	if len(cfg.QueryDenyPatterns) != 2 || cfg.QueryDenyPatterns[1] != "bar" {
		t.Fatalf("unexpected deny patterns %v", cfg.QueryDenyPatterns)
	}
	if cfg.RAGContextSeparator != "\n===\n" {
		t.Fatalf("expected escaped separator to be unescaped, got %q", cfg.RAGContextSeparator)
	}
}

func TestLoadDenyPatternsNone(t *testing.T) {
	isolate(t)
	t.Setenv("QUERY_DENY_PATTERNS", "none")

	cfg := Load()
	if cfg.QueryDenyPatterns == nil || len(cfg.QueryDenyPatterns) != 0 {
		t.Fatalf("expected empty non-nil deny list, got %#v", cfg.QueryDenyPatterns)
	}
}

func TestLoadLayersYAMLDotenvAndEnvironment(t *testing.T) {
	dir := isolate(t)
	yamlPath := filepath.Join(dir, "config.yaml")
	writeFile(t, yamlPath, `
rag_top_k: 7
RAG_RELEVANCE_THRESHOLD: 0.6
llm_model: yaml-model
api_port: 9000
query_deny_patterns:
  - alpha
  - beta
`)
	envPath := filepath.Join(dir, "test.env")
	writeFile(t, envPath, "LLM_MODEL=dotenv-model\nAPI_PORT=9100\n")

	t.Setenv("CONFIG_FILE", yamlPath)
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("API_PORT", "9200")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RAG_RELEVANCE_THRESHOLD", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("QUERY_DENY_PATTERNS", "")

	cfg := Load()
	if cfg.RAGTopK != 7 || cfg.RAGRelevanceThreshold != 0.6 {
		t.Fatalf("expected yaml values, got top k %d threshold %v", cfg.RAGTopK, cfg.RAGRelevanceThreshold)
	}
	if cfg.LLMModel != "dotenv-model" {
		t.Fatalf("expected dotenv to override yaml, got %q", cfg.LLMModel)
	}
	if cfg.APIPort != "9200" {
		t.Fatalf("expected environment to override dotenv, got %q", cfg.APIPort)
	}
	if len(cfg.QueryDenyPatterns) != 2 || cfg.QueryDenyPatterns[0] != "alpha" {
		t.Fatalf("expected yaml list, got %v", cfg.QueryDenyPatterns)
	}
}

func TestLoadInvalidValueFallsBackToLowerLayer(t *testing.T) {
	dir := isolate(t)
	yamlPath := filepath.Join(dir, "config.yaml")
	writeFile(t, yamlPath, "rag_top_k: 9\nllm_timeout: 20s\n")
	t.Setenv("CONFIG_FILE", yamlPath)
	t.Setenv("RAG_TOP_K", "many")
	t.Setenv("LLM_TIMEOUT", "soon")
	t.Setenv("LLM_BREAKER_ENABLED", "maybe")

	cfg := Load()
	if cfg.RAGTopK != 9 {
		t.Fatalf("expected yaml top k after invalid env, got %d", cfg.RAGTopK)
	}
	if cfg.LLMTimeout != 20*time.Second {
		t.Fatalf("expected yaml timeout after invalid env, got %v", cfg.LLMTimeout)
	}
	if !cfg.LLMBreakerEnabled {
		t.Fatalf("expected default breaker setting after invalid env")
	}
}

func TestLoadIgnoresUnreadableConfigFile(t *testing.T) {
	dir := isolate(t)
	yamlPath := filepath.Join(dir, "broken.yaml")
	writeFile(t, yamlPath, "rag_top_k: [1, 2\n")
	t.Setenv("CONFIG_FILE", yamlPath)
	t.Setenv("RAG_TOP_K", "")

	if cfg := Load(); cfg.RAGTopK != 5 {
		t.Fatalf("expected default after broken config file, got %d", cfg.RAGTopK)
	}
}

func TestUsecaseConfigMapping(t *testing.T) {
	isolate(t)
	t.Setenv("PROMPT_HISTORY_TURNS", "3")
	t.Setenv("HISTORY_CAPACITY", "12")
	t.Setenv("PROMPT_REFUSAL_PHRASE", "No idea.")

	core := Load().UsecaseConfig()
	if core.PromptHistoryTurns != 3 || core.HistoryCapacity != 12 || core.RefusalPhrase != "No idea." {
		t.Fatalf("unexpected usecase config %+v", core)
	}
	if core.Apology != usecase.DefaultApology {
		t.Fatalf("expected default apology, got %q", core.Apology)
	}
}
