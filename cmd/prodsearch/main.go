package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/config"
	dbRedis "github.com/kailas-cloud/prodsearch/internal/db/redis"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/repository/annindex"
	"github.com/kailas-cloud/prodsearch/internal/repository/embcache"
	"github.com/kailas-cloud/prodsearch/internal/snapshot"
	chiTransport "github.com/kailas-cloud/prodsearch/internal/transport/chi"
	"github.com/kailas-cloud/prodsearch/internal/transport/inference"
	openaiEmb "github.com/kailas-cloud/prodsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	rerankuc "github.com/kailas-cloud/prodsearch/internal/usecase/rerank"
	retrieveuc "github.com/kailas-cloud/prodsearch/internal/usecase/retrieve"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
	understanduc "github.com/kailas-cloud/prodsearch/internal/usecase/understand"
	"github.com/kailas-cloud/prodsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting prodsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog", cfg.Catalog.Path),
		zap.String("vector_driver", cfg.Vector.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Redis/Valkey store: ANN backend and embedding cache.
	var store *dbRedis.Store
	if cfg.Database.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
	}

	// Oracles
	baseEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    cfg.Embedding.Timeout(),
		Logger:     logger,
	})
	embedder, err := buildEmbedder(cfg.Embedding, baseEmbedder, store, logger)
	if err != nil {
		logger.Fatal("Failed to build embedder", zap.Error(err))
	}

	ner, err := inference.NewNER(inference.NERConfig{
		URL:     cfg.Inference.NER.URL,
		Token:   cfg.Inference.NER.Token,
		Timeout: cfg.Inference.Timeout(),
	})
	if err != nil {
		logger.Fatal("Failed to create NER client", zap.Error(err))
	}

	reranker, err := inference.NewReranker(inference.RerankerConfig{
		URL:      cfg.Inference.Reranker.URL,
		Token:    cfg.Inference.Reranker.Token,
		Timeout:  cfg.Inference.Timeout(),
		MaxBatch: cfg.Inference.Reranker.MaxBatch,
		Workers:  cfg.Inference.Reranker.Workers,
	})
	if err != nil {
		logger.Fatal("Failed to create reranker client", zap.Error(err))
	}
	defer reranker.Release()

	// Catalog + index snapshot
	indexSource, watched := buildIndexSource(cfg, store)
	loader := snapshot.NewLoader(cfg.Catalog.Path, indexSource, logger)
	holder := snapshot.NewHolder(nil)
	if err := loader.Reload(ctx, holder); err != nil {
		logger.Fatal("Failed to load catalog and index", zap.Error(err))
	}

	if cfg.Reload.Enabled {
		watcher := snapshot.NewWatcher(watched, cfg.Reload.Debounce(), func(ctx context.Context) error {
			return loader.Reload(ctx, holder)
		}, logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Fatal("Failed to start snapshot watcher", zap.Error(err))
		}
		defer watcher.Stop()
	}

	// Use cases
	searchSvc := searchuc.New(
		holder,
		understanduc.New(ner),
		retrieveuc.New(embedder, cfg.Search.Candidates),
		rerankuc.New(reranker),
	).WithTimeout(cfg.Search.RequestTimeout())

	// Pass nil interface (not typed nil pointer!) when no database is configured.
	var dbPinger healthuc.DBPinger
	if store != nil {
		dbPinger = store
	}
	healthSvc := healthuc.New(holder, dbPinger, baseEmbedder)

	// HTTP
	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> Redis cache -> LRU -> Instrumented -> Instruction.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	base domain.Embedder,
	store *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, error) {
	embedder := base
	if store != nil {
		ttl := time.Duration(cfg.CacheTTLSec) * time.Second
		embedder = embcache.New(embedder, store, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	memory, err := embcache.NewMemory(embedder, cfg.CacheSize, metrics.EmbeddingCacheTotal)
	if err != nil {
		return nil, err
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(memory, cfg.Provider, cfg.Model, logger)

	// Instruction prefix is outermost so cache keys include it.
	return domain.WithQueryInstruction(embedder, cfg.QueryInstruction), nil
}

// buildIndexSource selects the ANN backend and returns the files to watch for reloads.
func buildIndexSource(cfg config.Config, store *dbRedis.Store) (snapshot.IndexSource, []string) {
	if cfg.Vector.Driver == config.VectorDriverRedis {
		return annindex.NewSource(store, annindex.Config{
			IndexName:  cfg.Vector.IndexName,
			KeyPrefix:  cfg.Vector.KeyPrefix,
			Dimensions: cfg.Vector.Dimensions,
		}), []string{cfg.Catalog.Path}
	}
	return snapshot.FileIndex{
		Path:       cfg.Vector.Path,
		Dimensions: cfg.Vector.Dimensions,
	}, []string{cfg.Catalog.Path, cfg.Vector.Path}
}
