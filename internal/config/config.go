package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/course-assistant/internal/core/usecase"
)

type Config struct {
	APIPort     string
	LogLevel    string
	ServiceName string

	QueryMinLength    int
	QueryMaxLength    int
	QueryDenyPatterns []string

	RAGTopK               int
	RAGRelevanceThreshold float64
	RAGRerankEnabled      bool
	RAGRerankTopN         int
	RAGRerankURL          string
	RAGRerankTimeout      time.Duration
	RAGContextSeparator   string

	PromptPersona         string
	PromptRefusalPhrase   string
	PromptMaxContextChars int
	PromptHistoryTurns    int
	HistoryCapacity       int

	LLMProvider         string
	LLMBaseURL          string
	LLMAPIKey           string
	LLMModel            string
	LLMTemperature      float64
	LLMMaxTokens        int
	LLMTimeout          time.Duration
	LLMRetryMaxAttempts int
	LLMRetryBaseDelay   time.Duration
	LLMRetryMaxDelay    time.Duration
	LLMRetryJitter      time.Duration
	LLMBreakerEnabled   bool

	EmbedProvider string
	EmbedBaseURL  string
	EmbedAPIKey   string
	EmbedModel    string

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string
	QdrantAPIKey     string
	SnapshotPath     string
	SnapshotWatch    bool

	TranscriptDriver string
	TranscriptDSN    string

	NATSEnabled bool
	NATSURL     string
	NATSSubject string

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInflight    int
	APIQueueWait      time.Duration
	APIMaxConnections int

	WorkerMetricsPort string
}

// Load resolves every setting from, lowest priority first: built-in
// defaults, the YAML file named by CONFIG_FILE, the dotenv file named by
// ENV_FILE (default .env), and the process environment. A value that fails
// to parse leaves the lower layer in effect.
func Load() Config {
	l := &loader{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := readYAML(path)
		if err != nil {
			slog.Warn("config_file_ignored", "path", path, "error", err)
		} else {
			l.layers = append(l.layers, values)
		}
	}
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if values, err := godotenv.Read(envFile); err == nil {
		l.layers = append(l.layers, values)
	} else if !os.IsNotExist(err) {
		slog.Warn("env_file_ignored", "path", envFile, "error", err)
	}
	return l.load()
}

func (l *loader) load() Config {
	core := usecase.DefaultConfig()

	return Config{
		APIPort:     l.mustEnv("API_PORT", "8080"),
		LogLevel:    l.mustEnv("LOG_LEVEL", "info"),
		ServiceName: l.mustEnv("SERVICE_NAME", "course-assistant"),

		QueryMinLength:    l.mustEnvInt("QUERY_MIN_LENGTH", core.MinQueryLength),
		QueryMaxLength:    l.mustEnvInt("QUERY_MAX_LENGTH", core.MaxQueryLength),
		QueryDenyPatterns: l.mustEnvList("QUERY_DENY_PATTERNS", core.DenyPatterns),

		RAGTopK:               l.mustEnvInt("RAG_TOP_K", core.TopK),
		RAGRelevanceThreshold: l.mustEnvFloat("RAG_RELEVANCE_THRESHOLD", core.RelevanceThreshold),
		RAGRerankEnabled:      l.mustEnvBool("RAG_RERANK_ENABLED", core.RerankEnabled),
		RAGRerankTopN:         l.mustEnvInt("RAG_RERANK_TOP_N", core.RerankTopN),
		RAGRerankURL:          l.mustEnv("RAG_RERANK_URL", ""),
		RAGRerankTimeout:      l.mustEnvDuration("RAG_RERANK_TIMEOUT", 10*time.Second),
		RAGContextSeparator:   unescape(l.mustEnv("RAG_CONTEXT_SEPARATOR", core.ContextSeparator)),

		PromptPersona:         l.mustEnv("PROMPT_PERSONA", core.Persona),
		PromptRefusalPhrase:   l.mustEnv("PROMPT_REFUSAL_PHRASE", core.RefusalPhrase),
		PromptMaxContextChars: l.mustEnvInt("PROMPT_MAX_CONTEXT_CHARS", core.MaxContextChars),
		PromptHistoryTurns:    l.mustEnvInt("PROMPT_HISTORY_TURNS", core.PromptHistoryTurns),
		HistoryCapacity:       l.mustEnvInt("HISTORY_CAPACITY", core.HistoryCapacity),

		LLMProvider:         strings.ToLower(l.mustEnv("LLM_PROVIDER", "openai")),
		LLMBaseURL:          l.mustEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMAPIKey:           l.mustEnv("LLM_API_KEY", ""),
		LLMModel:            l.mustEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTemperature:      l.mustEnvFloat("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:        l.mustEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTimeout:          l.mustEnvDuration("LLM_TIMEOUT", 60*time.Second),
		LLMRetryMaxAttempts: l.mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", 3),
		LLMRetryBaseDelay:   l.mustEnvDuration("LLM_RETRY_BASE_DELAY", time.Second),
		LLMRetryMaxDelay:    l.mustEnvDuration("LLM_RETRY_MAX_DELAY", 8*time.Second),
		LLMRetryJitter:      l.mustEnvDuration("LLM_RETRY_JITTER", 250*time.Millisecond),
		LLMBreakerEnabled:   l.mustEnvBool("LLM_BREAKER_ENABLED", true),

		EmbedProvider: strings.ToLower(l.mustEnv("EMBED_PROVIDER", "openai")),
		EmbedBaseURL:  l.mustEnv("EMBED_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		EmbedAPIKey:   l.mustEnv("EMBED_API_KEY", ""),
		EmbedModel:    l.mustEnv("EMBED_MODEL", "gemini-embedding-001"),

		VectorBackend:    strings.ToLower(l.mustEnv("VECTOR_BACKEND", "qdrant")),
		QdrantURL:        l.mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: l.mustEnv("QDRANT_COLLECTION", "nextleap_courses"),
		QdrantAPIKey:     l.mustEnv("QDRANT_API_KEY", ""),
		SnapshotPath:     l.mustEnv("SNAPSHOT_PATH", "./data/knowledge.jsonl"),
		SnapshotWatch:    l.mustEnvBool("SNAPSHOT_WATCH", true),

		TranscriptDriver: strings.ToLower(l.mustEnv("TRANSCRIPT_DRIVER", "none")),
		TranscriptDSN:    l.mustEnv("TRANSCRIPT_DSN", ""),

		NATSEnabled: l.mustEnvBool("NATS_ENABLED", false),
		NATSURL:     l.mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: l.mustEnv("NATS_SUBJECT", "chat.turns"),

		APIRateLimitRPS:   l.mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst: l.mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInflight:    l.mustEnvInt("API_MAX_INFLIGHT", 32),
		APIQueueWait:      l.mustEnvDuration("API_QUEUE_WAIT", 250*time.Millisecond),
		APIMaxConnections: l.mustEnvInt("API_MAX_CONNECTIONS", 256),

		WorkerMetricsPort: l.mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// UsecaseConfig maps the flat settings onto the chat core configuration.
func (c Config) UsecaseConfig() usecase.Config {
	core := usecase.DefaultConfig()
	core.MinQueryLength = c.QueryMinLength
	core.MaxQueryLength = c.QueryMaxLength
	core.DenyPatterns = c.QueryDenyPatterns
	core.TopK = c.RAGTopK
	core.RelevanceThreshold = c.RAGRelevanceThreshold
	core.RerankEnabled = c.RAGRerankEnabled
	core.RerankTopN = c.RAGRerankTopN
	core.ContextSeparator = c.RAGContextSeparator
	core.Persona = c.PromptPersona
	core.RefusalPhrase = c.PromptRefusalPhrase
	core.MaxContextChars = c.PromptMaxContextChars
	core.PromptHistoryTurns = c.PromptHistoryTurns
	core.HistoryCapacity = c.HistoryCapacity
	return core
}

// loader holds the file layers below the process environment, lowest
// priority first.
type loader struct {
	layers []map[string]string
}

func (l *loader) values(key string) []string {
	out := make([]string, 0, len(l.layers)+1)
	for _, layer := range l.layers {
		if v := strings.TrimSpace(layer[key]); v != "" {
			out = append(out, v)
		}
	}
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		out = append(out, v)
	}
	return out
}

func resolve[T any](l *loader, key string, fallback T, parse func(string) (T, error)) T {
	out := fallback
	for _, raw := range l.values(key) {
		v, err := parse(raw)
		if err != nil {
			slog.Warn("config_value_invalid", "key", key, "error", err)
			continue
		}
		out = v
	}
	return out
}

func (l *loader) mustEnv(key, fallback string) string {
	return resolve(l, key, fallback, func(s string) (string, error) { return s, nil })
}

func (l *loader) mustEnvInt(key string, fallback int) int {
	return resolve(l, key, fallback, strconv.Atoi)
}

func (l *loader) mustEnvFloat(key string, fallback float64) float64 {
	return resolve(l, key, fallback, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func (l *loader) mustEnvBool(key string, fallback bool) bool {
	return resolve(l, key, fallback, strconv.ParseBool)
}

func (l *loader) mustEnvDuration(key string, fallback time.Duration) time.Duration {
	return resolve(l, key, fallback, time.ParseDuration)
}

// mustEnvList splits on commas. The literal value "none" yields an empty,
// non-nil list.
func (l *loader) mustEnvList(key string, fallback []string) []string {
	return resolve(l, key, fallback, func(s string) ([]string, error) {
		if strings.EqualFold(s, "none") {
			return []string{}, nil
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
}

// readYAML reads a flat mapping. Keys may use either the environment
// spelling (RAG_TOP_K) or lower case (rag_top_k); sequences are joined with
// commas.
func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		switch v := value.(type) {
		case nil:
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, fmt.Sprint(item))
			}
			out[k] = strings.Join(items, ",")
		case map[string]any:
			return nil, fmt.Errorf("parse config file: key %q must be a scalar or a list", key)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func unescape(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}
