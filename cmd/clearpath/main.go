package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clearpath-health/clearpath/internal/api"
	"github.com/clearpath-health/clearpath/internal/cache"
	"github.com/clearpath-health/clearpath/internal/config"
	"github.com/clearpath-health/clearpath/internal/corpus"
	"github.com/clearpath-health/clearpath/internal/engine"
	"github.com/clearpath-health/clearpath/internal/metrics"
	"github.com/clearpath-health/clearpath/internal/patterns"
	"github.com/clearpath-health/clearpath/internal/reasoning"
	"github.com/clearpath-health/clearpath/internal/repo"
	"github.com/clearpath-health/clearpath/internal/services"
	"github.com/clearpath-health/clearpath/internal/store"
	"github.com/clearpath-health/clearpath/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting clearpath", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	policies, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		logger.Error("failed to load policy corpus", slog.Any("error", err))
		os.Exit(1)
	}
	if err := policies.Validate(); err != nil {
		logger.Error("invalid policy corpus", slog.Any("error", err))
		os.Exit(1)
	}

	var reasoner engine.Reasoner
	if cfg.Reasoning.BaseURL != "" {
		cacheProvider := cache.New(cache.Options{
			Enabled: cfg.Cache.Enabled,
			Memory:  cfg.Cache.Memory,
			Valkey: cache.ValkeyConfig{
				Addr:         cfg.Cache.Addr,
				Username:     cfg.Cache.Username,
				Password:     cfg.Cache.Password,
				DB:           cfg.Cache.DB,
				DialTimeout:  cfg.Cache.DialTimeout,
				ReadTimeout:  cfg.Cache.ReadTimeout,
				WriteTimeout: cfg.Cache.WriteTimeout,
				MaxRetries:   cfg.Cache.MaxRetries,
				TLS:          cfg.Cache.TLS,
			},
		}, logger)
		defer cacheProvider.Close()

		reasoner = repo.NewReasoningClient(repo.ReasoningOptions{
			BaseURL:    cfg.Reasoning.BaseURL,
			APIKey:     cfg.Reasoning.APIKey,
			Deployment: cfg.Reasoning.Deployment,
			Timeout:    cfg.Reasoning.Timeout,
			Cache:      cacheProvider,
			CacheTTL:   cfg.Cache.ReasoningTTL,
			Logger:     logger,
		})
		logger.Info("using hosted reasoning endpoint", slog.String("base_url", cfg.Reasoning.BaseURL), slog.String("deployment", cfg.Reasoning.Deployment))
	} else {
		rules, err := reasoning.LoadRules(cfg.Rules.Path, logger)
		if err != nil {
			logger.Error("failed to load gap rule pack", slog.Any("error", err))
			os.Exit(1)
		}
		reasoner = reasoning.NewHeuristic(policies, rules, logger)
		logger.Info("using heuristic reasoner", slog.Int("rules", rules.Len()))
	}

	var journal *store.Journal
	if cfg.Store.JournalPath != "" {
		journal, err = store.OpenJournal(cfg.Store.JournalPath)
		if err != nil {
			logger.Error("failed to open journal", slog.Any("error", err))
			os.Exit(1)
		}
		defer journal.Close()
	}
	cases := store.NewMemory(journal, logger)
	var (
		miner   *patterns.Miner
		reviews services.ReviewLog
	)
	if journal != nil {
		records, entries, err := journal.Load(context.Background())
		if err != nil {
			logger.Error("failed to replay journal", slog.Any("error", err))
			os.Exit(1)
		}
		cases.Restore(records, entries)
		logger.Info("journal replayed", slog.Int("cases", len(records)), slog.Int("queued", len(entries)))
		miner = patterns.NewMiner(logger, journal)
		if err := miner.Prime(context.Background()); err != nil {
			logger.Warn("failed to load gap patterns, mining on first stats read", slog.Any("error", err))
		}
		reviews = journal
	}
	metrics.SetQueueDepth(len(cases.Queue(context.Background())))

	pipeline := engine.NewPipeline(engine.Options{
		Logger:               logger,
		Reasoner:             reasoner,
		Store:                cases,
		Corpus:               policies,
		Threshold:            cfg.Pipeline.ApprovalThreshold,
		TopK:                 cfg.Pipeline.TopK,
		StageTimeout:         cfg.Pipeline.StageTimeout,
		PayerScopedRetrieval: cfg.Pipeline.PayerScopedRetrieval,
	})

	priorAuth := services.NewPriorAuthService(logger, pipeline, cases, miner, reviews)

	server, err := api.NewServer(cfg.Server, priorAuth)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var httpServers []*http.Server
	serveHTTP := func(name, addr string, handler http.Handler) {
		srv := &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: cfg.Pipeline.StageTimeout*3 + 15*time.Second,
		}
		httpServers = append(httpServers, srv)
		go func() {
			logger.Info(name+" server listening", slog.String("address", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(name+" server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		serveHTTP("metrics", cfg.Server.MetricsAddress, mux)
	}
	if cfg.Server.HTTPAddress != "" {
		serveHTTP("rest gateway", cfg.Server.HTTPAddress, api.NewGateway(priorAuth, logger).Handler())
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	for _, srv := range httpServers {
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server shutdown", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}

	logger.Info("clearpath stopped", slog.Duration("pipeline_p95", priorAuth.LatencyP95()))
}
