package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/course-assistant/internal/config"
	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
	"github.com/kirillkom/course-assistant/internal/core/usecase"
	"github.com/kirillkom/course-assistant/internal/infrastructure/llm"
	"github.com/kirillkom/course-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/course-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/course-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/course-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/course-assistant/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/course-assistant/internal/infrastructure/rerank"
	"github.com/kirillkom/course-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/course-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/course-assistant/internal/infrastructure/vector/snapshot"
)

type App struct {
	Config config.Config

	Chatbot     *usecase.Chatbot
	Transcripts ports.TranscriptStore
	Queue       *nats.TurnQueue
	// Health pings the vector backend; nil when the backend has no check.
	Health ports.HealthChecker

	closers []func()
}

// New wires the chat core and its optional sinks. Background work such as
// snapshot watching is bound to ctx.
func New(ctx context.Context, cfg config.Config) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	coreCfg := cfg.UsecaseConfig()
	infraExec := resilience.NewExecutor(infraResilienceConfig())

	embedder, err := newEmbedder(cfg, infraExec)
	if err != nil {
		return nil, err
	}
	store, err := app.newVectorStore(ctx, cfg, infraExec)
	if err != nil {
		return nil, err
	}
	if hc, ok := store.(ports.HealthChecker); ok {
		app.Health = hc
	}

	var crossEncoder ports.CrossEncoder
	if cfg.RAGRerankEnabled {
		if strings.TrimSpace(cfg.RAGRerankURL) != "" {
			crossEncoder = rerank.New(cfg.RAGRerankURL, cfg.RAGRerankTimeout, infraExec)
		} else {
			crossEncoder = usecase.NewLexicalScorer()
		}
	}

	model, err := newLanguageModel(cfg)
	if err != nil {
		return nil, err
	}

	preprocessor, err := usecase.NewQueryPreprocessor(coreCfg)
	if err != nil {
		return nil, fmt.Errorf("init query preprocessor: %w", err)
	}
	retriever := usecase.NewRetriever(embedder, store, crossEncoder, coreCfg)
	pipeline := usecase.NewRetrievalPipeline(preprocessor, retriever, coreCfg)
	generator := usecase.NewResponseGenerator(usecase.NewPromptBuilder(coreCfg), model, coreCfg)

	recorders, err := app.newRecorders(ctx, cfg, infraExec)
	if err != nil {
		return nil, err
	}

	app.Chatbot = usecase.NewChatbot(
		pipeline,
		generator,
		usecase.NewResponseFormatter(coreCfg),
		usecase.NewConversationHistory(coreCfg.HistoryCapacity),
		coreCfg,
		recorders...,
	)

	slog.Info("chatbot_ready",
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"embed_provider", cfg.EmbedProvider,
		"vector_backend", cfg.VectorBackend,
		"rerank", cfg.RAGRerankEnabled,
		"transcripts", cfg.TranscriptDriver,
		"nats", cfg.NATSEnabled,
	)
	return app, nil
}

// NewWorker wires the transcript consumer: a NATS subscription feeding the
// configured transcript repository.
func NewWorker(ctx context.Context, cfg config.Config) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	transcripts, err := app.openTranscripts(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if transcripts == nil {
		return nil, fmt.Errorf("worker requires TRANSCRIPT_DRIVER to be postgres or sqlite")
	}
	app.Transcripts = transcripts

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Name: cfg.ServiceName + "-worker",
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	app.Queue = queue
	app.closers = append(app.closers, queue.Close)
	return app, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func llmResilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.LLMRetryMaxAttempts
	out.RetryInitialBackoff = cfg.LLMRetryBaseDelay
	out.RetryMaxBackoff = cfg.LLMRetryMaxDelay
	out.RetryJitter = cfg.LLMRetryJitter
	out.BreakerEnabled = cfg.LLMBreakerEnabled
	return out
}

// infraResilienceConfig covers embedding, vector search, reranking and
// publishing: short waits, the caller is a live chat turn.
func infraResilienceConfig() resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryInitialBackoff = 200 * time.Millisecond
	out.RetryMaxBackoff = 2 * time.Second
	out.RetryJitter = 100 * time.Millisecond
	return out
}

func newLanguageModel(cfg config.Config) (*llm.Client, error) {
	opts := llm.Options{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}

	var completer llm.Completer
	switch cfg.LLMProvider {
	case "openai", "groq":
		if strings.TrimSpace(cfg.LLMAPIKey) == "" {
			slog.Warn("llm_api_key_missing", "base_url", cfg.LLMBaseURL)
		}
		completer = openai.New(cfg.LLMBaseURL, cfg.LLMAPIKey, opts)
	case "ollama":
		completer = ollama.New(cfg.LLMBaseURL, opts)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	return llm.NewClient(completer, resilience.NewExecutor(llmResilienceConfig(cfg))), nil
}

func newEmbedder(cfg config.Config, executor *resilience.Executor) (ports.Embedder, error) {
	opts := llm.Options{Timeout: 30 * time.Second}

	var inner ports.Embedder
	switch cfg.EmbedProvider {
	case "openai", "gemini":
		inner = openai.NewEmbedder(openai.New(cfg.EmbedBaseURL, cfg.EmbedAPIKey, opts), cfg.EmbedModel)
	case "ollama":
		inner = ollama.NewEmbedder(ollama.New(cfg.EmbedBaseURL, opts), cfg.EmbedModel)
	default:
		return nil, fmt.Errorf("unsupported EMBED_PROVIDER %q", cfg.EmbedProvider)
	}
	return llm.NewRetryingEmbedder(inner, executor), nil
}

func (a *App) newVectorStore(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.VectorStore, error) {
	switch cfg.VectorBackend {
	case "qdrant":
		return qdrant.NewRetryingStore(qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantAPIKey), executor), nil
	case "qdrant-grpc":
		grpcStore, err := qdrant.NewGRPCStore(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init qdrant grpc: %w", err)
		}
		a.closers = append(a.closers, func() { _ = grpcStore.Close() })
		return qdrant.NewRetryingStore(grpcStore, executor), nil
	case "snapshot":
		store, err := snapshot.Open(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("open knowledge snapshot: %w", err)
		}
		if cfg.SnapshotWatch {
			if err := store.Watch(ctx); err != nil {
				slog.Warn("snapshot_watch_disabled", "path", cfg.SnapshotPath, "error", err)
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}

func (a *App) newRecorders(ctx context.Context, cfg config.Config, executor *resilience.Executor) ([]ports.TurnRecorder, error) {
	var recorders []ports.TurnRecorder

	transcripts, err := a.openTranscripts(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if transcripts != nil {
		a.Transcripts = transcripts
		recorders = append(recorders, storeRecorder{store: transcripts})
	}

	if cfg.NATSEnabled {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			Name:               cfg.ServiceName,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		a.Queue = queue
		a.closers = append(a.closers, queue.Close)
		recorders = append(recorders, queue)
	}
	return recorders, nil
}

// openTranscripts returns nil when persistence is disabled.
func (a *App) openTranscripts(ctx context.Context, cfg config.Config) (ports.TranscriptStore, error) {
	var (
		db    *sql.DB
		err   error
		store interface {
			ports.TranscriptStore
			EnsureSchema(context.Context) error
		}
	)

	switch cfg.TranscriptDriver {
	case "", "none":
		return nil, nil
	case "postgres":
		db, err = postgres.OpenDB(cfg.TranscriptDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store = postgres.NewTranscriptRepository(db)
	case "sqlite":
		dsn := cfg.TranscriptDSN
		if dsn == "" {
			dsn = "./data/transcripts.db"
		}
		db, err = sqlite.OpenDB(dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store = sqlite.NewTranscriptRepository(db)
	default:
		return nil, fmt.Errorf("unsupported TRANSCRIPT_DRIVER %q", cfg.TranscriptDriver)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure transcript schema: %w", err)
	}
	return store, nil
}

type storeRecorder struct {
	store ports.TranscriptStore
}

func (r storeRecorder) RecordTurn(ctx context.Context, record domain.TurnRecord) error {
	return r.store.SaveTurn(ctx, record)
}
