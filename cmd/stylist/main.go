// Command stylist serves the fashion catalog search API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/cache"
	"github.com/kailas-cloud/stylist/internal/catalog"
	"github.com/kailas-cloud/stylist/internal/config"
	"github.com/kailas-cloud/stylist/internal/domain"
	"github.com/kailas-cloud/stylist/internal/index"
	logpkg "github.com/kailas-cloud/stylist/internal/logger"
	"github.com/kailas-cloud/stylist/internal/metrics"
	"github.com/kailas-cloud/stylist/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/stylist/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/stylist/internal/transport/openai"
	healthuc "github.com/kailas-cloud/stylist/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylist/internal/usecase/search"
	"github.com/kailas-cloud/stylist/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting stylist API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_path", cfg.Artifacts.IndexPath),
		zap.String("metadata_path", cfg.Artifacts.MetadataPath),
	)

	metrics.Register()

	// Load the artifact pair. A missing or corrupt pair is not fatal: the
	// server starts degraded and every search fails with index_not_loaded,
	// which is a different condition from an empty result set.
	var (
		idx   searchuc.Index
		store searchuc.Catalog
	)
	flat, items, err := index.LoadPair(cfg.Artifacts.IndexPath, cfg.Artifacts.MetadataPath)
	if err != nil {
		logger.Warn("Index artifacts unavailable, starting degraded", zap.Error(err))
	} else {
		catStore, err := catalog.New(items)
		if err != nil {
			logger.Warn("Catalog metadata invalid, starting degraded", zap.Error(err))
		} else {
			idx = flat
			store = catStore
			logger.Info("Index loaded",
				zap.Int("vectors", flat.Len()),
				zap.Int("dim", flat.Dim()),
			)
		}
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	textEmbedder, closeCache := buildTextEmbedder(base, cfg, logger)
	defer closeCache()

	var summarizer searchuc.Summarizer
	if cfg.Summarizer.Model != "" {
		summarizer = openaiTransport.NewSummarizer(&openaiTransport.SummarizerConfig{
			APIKey:    cfg.Summarizer.APIKey,
			BaseURL:   cfg.Summarizer.BaseURL,
			Model:     cfg.Summarizer.Model,
			MaxTokens: cfg.Summarizer.MaxTokens,
			Logger:    logger,
		})
		logger.Info("Summarizer enabled", zap.String("model", cfg.Summarizer.Model))
	} else {
		logger.Info("Summarizer disabled, searches return results without rag_text")
	}

	searchSvc := searchuc.New(idx, store, textEmbedder, base, summarizer, cfg.Search.MaxTopK, logger)
	healthSvc := healthuc.New(searchSvc, base)

	server := chiTransport.NewServer(searchSvc, healthSvc, cfg.Search.DefaultTopK, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORS(cfg.CORS.AllowedOrigins))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildTextEmbedder optionally wraps the base embedder with the redis-backed
// query cache. Returns a cleanup func for the cache connection.
func buildTextEmbedder(
	base domain.Embedder, cfg config.Config, logger *zap.Logger,
) (domain.Embedder, func()) {
	if len(cfg.Cache.Addrs) == 0 {
		return base, func() {}
	}

	kv, err := cache.NewRedis(cfg.Cache.Addrs, cfg.Cache.Password)
	if err != nil {
		logger.Warn("Embedding cache unavailable, continuing without it", zap.Error(err))
		return base, func() {}
	}

	logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	cached := embcache.New(
		base, kv, cfg.Embedding.Model,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	return cached, kv.Close
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
