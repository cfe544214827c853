package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/bfs-crawler/internal/adapter/chromedp_renderer"
	"github.com/user/bfs-crawler/internal/adapter/file"
	"github.com/user/bfs-crawler/internal/adapter/memory"
	"github.com/user/bfs-crawler/internal/adapter/postgres"
	"github.com/user/bfs-crawler/internal/adapter/proxy"
	redis_adapter "github.com/user/bfs-crawler/internal/adapter/redis"
	"github.com/user/bfs-crawler/internal/adapter/static_renderer"
	"github.com/user/bfs-crawler/internal/delivery/http/handler"
	"github.com/user/bfs-crawler/internal/delivery/http/router"
	"github.com/user/bfs-crawler/internal/delivery/http/server"
	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/pagefunc"
	"github.com/user/bfs-crawler/internal/repository"
	"github.com/user/bfs-crawler/internal/usecase"
	"github.com/user/bfs-crawler/pkg/config"
	"github.com/user/bfs-crawler/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// runCrawl wires one run from cfg and executes it. The status server, when
// configured, lives exactly as long as the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*entity.CrawlOutput, error) {
	runID := uuid.NewString()
	m := metrics.New()

	// --- Renderer ---
	renderer, err := newRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}
	rotator, err := proxy.NewRotator(cfg.ProxyConfiguration.ProxyURLs)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	pageFunction, err := loadPageFunction(cfg.PageFunctionFile)
	if err != nil {
		return nil, err
	}
	if cfg.Renderer.Kind == "static" && pageFunction.Document == nil && pageFunction.Script != "" {
		logger.Warn("static renderer cannot run script page functions; results will be null",
			zap.String("page_function", pageFunction.Name))
	}

	// --- Frontier ---
	frontier, closeFrontier, err := newFrontier(ctx, cfg, runID)
	if err != nil {
		return nil, err
	}
	defer closeFrontier()

	// --- Sinks ---
	sinks := []repository.ResultSink{file.NewResultWriter(cfg.OutputFile)}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		repo := postgres.NewResultRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, repo)
		logger.Info("PostgreSQL result sink enabled")
	}

	var seeds repository.SeedRepository
	if cfg.InputFile != "" {
		seeds = file.NewSeedFile(cfg.InputFile)
	}

	executor := usecase.NewJobExecutor(renderer, rotator, toExecutorOptions(cfg, pageFunction), logger)
	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		RunID:     runID,
		Frontier:  frontier,
		Executor:  executor,
		Seeds:     seeds,
		Sinks:     sinks,
		Limits:    toLimits(cfg),
		StartURLs: cfg.StartURLs,
		Metrics:   m,
		Logger:    logger,
	})

	if cfg.Server.Addr == "" {
		return orchestrator.Run(ctx)
	}

	srv := server.New(cfg.Server.Addr, router.New(handler.NewHandler(orchestrator, logger), m, logger), logger)
	g, gctx := errgroup.WithContext(ctx)
	var output *entity.CrawlOutput
	g.Go(srv.Start)
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown failed", zap.Error(err))
			}
		}()
		var err error
		output, err = orchestrator.Run(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return output, nil
}

func newRenderer(cfg *config.Config, logger *zap.Logger) (repository.Renderer, error) {
	switch cfg.Renderer.Kind {
	case "chromedp":
		return chromedp_renderer.NewChromedpRenderer(chromedp_renderer.Options{
			ExecPath:          cfg.Renderer.ExecPath,
			Headless:          cfg.Renderer.Headless,
			NavigationTimeout: cfg.Renderer.NavigationTimeout,
		}, logger), nil
	case "static":
		return static_renderer.NewStaticRenderer(static_renderer.Options{
			RequestTimeout: cfg.Renderer.RequestTimeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown renderer %q", config.ErrInvalidConfig, cfg.Renderer.Kind)
	}
}

// newFrontier returns the run's frontier and a function releasing its connection.
func newFrontier(ctx context.Context, cfg *config.Config, runID string) (repository.FrontierRepository, func(), error) {
	switch cfg.Frontier.Backend {
	case "memory":
		return memory.NewFrontierRepo(), func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Frontier.RedisAddr,
			Password: cfg.Frontier.RedisPassword,
			DB:       cfg.Frontier.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Frontier.RedisAddr, err)
		}
		return redis_adapter.NewFrontierRepo(rdb, runID), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown frontier backend %q", config.ErrInvalidConfig, cfg.Frontier.Backend)
	}
}

// loadPageFunction reads a JavaScript page function, or returns the zero Func
// so the executor falls back to pagefunc.Default.
func loadPageFunction(path string) (pagefunc.Func, error) {
	if path == "" {
		return pagefunc.Func{}, nil
	}
	script, err := os.ReadFile(path)
	if err != nil {
		return pagefunc.Func{}, fmt.Errorf("read page function: %w", err)
	}
	if strings.TrimSpace(string(script)) == "" {
		return pagefunc.Func{}, errors.New("page function file is empty")
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return pagefunc.FromScript(name, string(script)), nil
}

func toLimits(cfg *config.Config) entity.CrawlLimits {
	return entity.CrawlLimits{
		MaxDepth:        cfg.MaxDepth,
		MaxLinksPerPage: cfg.MaxLinksPerPage,
		DelayMs:         cfg.DelayMs,
		MaxPages:        cfg.MaxPages,
	}
}

func toExecutorOptions(cfg *config.Config, pageFunction pagefunc.Func) usecase.ExecutorOptions {
	opts := usecase.ExecutorOptions{
		UserAgent:      cfg.UserAgent,
		BlockResources: cfg.BlockResources,
		PageFunction:   pageFunction,
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts.Viewport = &entity.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}
	}
	for _, c := range cfg.Cookies {
		cookie := entity.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(c.Expires, 0).UTC()
		}
		opts.Cookies = append(opts.Cookies, cookie)
	}
	return opts
}
