package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gig-wizard/internal/api"
	"gig-wizard/internal/events"
	"gig-wizard/internal/gig"
	"gig-wizard/internal/migrate"
	"gig-wizard/internal/model"
	"gig-wizard/internal/refcache"
	"gig-wizard/internal/refclient"
	"gig-wizard/internal/reference"
	"gig-wizard/internal/scheduler"
	"gig-wizard/internal/skillcrud"
	"gig-wizard/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with background cache warm-up",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type warmScheduler interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) (int, error)
}

type bundleMigrator interface {
	LoadAndMigrate(ctx context.Context, b model.Bundle, policy migrate.Policy) migrate.Result
}

// appDeps 汇总命令需要的组件。
type appDeps struct {
	sched   warmScheduler
	refs    bundleMigrator
	handler http.Handler
}

type appBuilder func(AppConfig) (appDeps, func(), error)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps, cleanup, err := buildApp(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer cleanup()

	timeout := 5 * time.Second
	if cfg.Server.ShutdownTimeout != "" {
		if d, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err == nil && d > 0 {
			timeout = d
		}
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: deps.handler}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on %s", cfg.Server.Addr)
	return runServer(ctx, srv, deps.sched, timeout)
}

// buildApp 组装存储、缓存、预热与 HTTP 处理器。未配置远端地址时由本地数据库充当参考数据服务。
func buildApp(cfg AppConfig) (appDeps, func(), error) {
	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return appDeps{}, func() {}, fmt.Errorf("init store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}

	var (
		fetcher refclient.Fetcher
		remote  skillcrud.Remote
	)
	if cfg.Reference.BaseURL != "" {
		client := refclient.New(cfg.Reference, nil)
		fetcher, remote = client, client
		log.Printf("reference data from %s", cfg.Reference.BaseURL)
	} else {
		catalog := storage.NewCatalog(store)
		fetcher, remote = catalog, catalog
		log.Printf("reference data from local database %s", cfg.Database.Path)
	}

	var sink events.Sink = events.Discard
	if cfg.Cache.LogEvents {
		sink = events.NewLogSink(log.New(os.Stdout, "[refdata] ", log.LstdFlags))
	}
	opts := []refcache.Option{refcache.WithSink(sink)}
	if cfg.Cache.Dedupe {
		opts = append(opts, refcache.WithDedupe())
	}

	cache := refcache.New(fetcher, opts...)
	refs := reference.New(cache, sink)
	sched := scheduler.NewScheduler(cache, cfg.Warmer)

	handler := api.NewHandler(api.Deps{
		Catalog:   fetcher,
		Skills:    skillcrud.New(remote, cache, sink),
		Reference: refs,
		Gigs:      gig.NewService(refs, store),
		GigReader: store,
		Warmer:    sched,
	})

	return appDeps{sched: sched, refs: refs, handler: handler}, cleanup, nil
}

// runServer 启动 HTTP 服务与预热循环，上下文取消后优雅关闭。
func runServer(ctx context.Context, srv httpServer, sched warmScheduler, timeout time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("scheduler stopped: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	var result error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		result = err
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && result == nil {
		result = fmt.Errorf("shutdown: %w", err)
	}

	<-schedDone
	return result
}
