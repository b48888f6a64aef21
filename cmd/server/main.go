package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/iliyamo/cinema-reconciler/internal/config"     // Internal config loader
	"github.com/iliyamo/cinema-reconciler/internal/database"   // Connection and schema
	"github.com/iliyamo/cinema-reconciler/internal/handler"    // HTTP handlers
	"github.com/iliyamo/cinema-reconciler/internal/logging"    // Structured logging
	"github.com/iliyamo/cinema-reconciler/internal/queue"      // RabbitMQ item consumer
	"github.com/iliyamo/cinema-reconciler/internal/reconcile"  // Reconciliation pipeline
	"github.com/iliyamo/cinema-reconciler/internal/repository" // Data access
	"github.com/iliyamo/cinema-reconciler/internal/router"     // Internal router setup
	"github.com/iliyamo/cinema-reconciler/internal/screen"     // Screen alias table
	queue_publisher "github.com/iliyamo/cinema-reconciler/internal/service"
)

func main() {
	cfg, err := config.Load() // Load environment config
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBOptions())
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database connection failed")
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		logging.Fatal().Err(err).Msg("schema creation failed")
	}

	aliases, err := screen.LoadAliasTable(cfg.AliasTablePath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.AliasTablePath).Msg("alias table load failed")
	}
	pipeline := reconcile.New(repository.NewStore(db.DB), screen.NewResolver(aliases), db)

	if cfg.ResetOnStart != "" {
		if err := pipeline.Reinit(ctx, cfg.ResetOnStart); err != nil {
			logging.Fatal().Err(err).Str("target", cfg.ResetOnStart).Msg("reset on start failed")
		}
	}

	var wg sync.WaitGroup
	var publisher handler.ItemPublisher
	if cfg.AMQPURL != "" {
		publisher = queue_publisher.URLPublisher{URL: cfg.AMQPURL, Queue: cfg.ItemQueue}
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.ItemQueue, cfg.ConsumerPrefetch, pipeline)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("consumer stopped")
			}
		}()
	} else {
		logging.Warn().Msg("RABBITMQ_URL not set; queue consumer disabled")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logging.Warn().Msg("redis unreachable; cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	e := router.New(router.Deps{
		Items:     handler.NewItemHandler(pipeline, publisher),
		Lookups:   handler.NewLookupHandler(pipeline),
		Admin:     handler.NewAdminHandler(pipeline),
		DB:        db,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Str("driver", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown")
	}
	wg.Wait()
}
