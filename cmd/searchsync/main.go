package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/searchsync-go/internal/content/repository"
	"github.com/searchsync-go/internal/hooks"
	"github.com/searchsync-go/internal/indexer"
	"github.com/searchsync-go/internal/rebuild"
	"github.com/searchsync-go/internal/scheduler"
	"github.com/searchsync-go/internal/search"
	"github.com/searchsync-go/internal/server"
	"github.com/searchsync-go/pkg/config"
	"github.com/searchsync-go/pkg/database"
	"github.com/searchsync-go/pkg/events"
	"github.com/searchsync-go/pkg/logger"
)

func main() {
	cfg, err := config.Load("searchsync")
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:     cfg.Logger.Level,
		Format:    cfg.Logger.Format,
		Output:    cfg.Logger.Output,
		AddCaller: cfg.Logger.AddCaller,
	})

	// Content store (read-only CMS database)
	db, err := database.New(database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Name:         cfg.Database.Name,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Fatal("failed to connect to content database", "error", err)
	}
	defer db.Close()

	store := repository.NewContentRepository(db)

	// Search engine client
	client, err := search.NewClient(search.Config{
		AppID:          cfg.Search.AppID,
		APIKey:         cfg.Search.APIKey,
		Hosts:          cfg.Search.Hosts,
		RequestsPerSec: cfg.Search.RequestsPerSec,
	})
	if err != nil {
		log.Fatal("failed to create search client", "error", err)
	}

	// Sync engine
	builder := indexer.NewBuilder(cfg.Indexing.Types)
	settings := indexer.NewSettingsComposer(
		cfg.Indexing.SearchableFields,
		cfg.Indexing.Facets,
		cfg.Indexing.CustomRanking,
	)
	engine := indexer.NewEngine(client, store, builder, settings, cfg.Indexing.Types, cfg.Search.Index, log)

	// Background rebuild coordinator
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	jobScheduler := scheduler.NewTimerScheduler(log)
	defer jobScheduler.Close()

	coordinator := rebuild.NewCoordinator(
		engine,
		store,
		rebuild.NewRedisProgressStore(redisClient),
		jobScheduler,
		cfg.Indexing.Types,
		log,
	)
	coordinator.Register(jobScheduler)

	// Lifecycle events from the CMS
	bus := events.NewKafkaEventBus(events.KafkaConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	})
	defer bus.Close()

	adapter := hooks.NewAdapter(engine, cfg.Search.Configured(), log)
	if err := adapter.Register(bus); err != nil {
		log.Fatal("failed to register lifecycle hooks", "error", err)
	}

	// Scheduled atomic rebuilds
	var cronRunner *cron.Cron
	if cfg.Rebuild.Schedule != "" {
		cronRunner = cron.New(cron.WithLocation(time.UTC))
		_, err := cronRunner.AddFunc(cfg.Rebuild.Schedule, func() {
			if _, err := engine.RebuildAtomic(context.Background()); err != nil {
				log.Error("scheduled rebuild failed", "error", err)
			}
		})
		if err != nil {
			log.Fatal("invalid rebuild schedule", "schedule", cfg.Rebuild.Schedule, "error", err)
		}
		cronRunner.Start()
		log.Info("scheduled rebuilds enabled", "schedule", cfg.Rebuild.Schedule)
	}

	// Admin API
	srv := server.New(cfg.Server, server.NewHandlers(engine, coordinator, log), log)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	if cronRunner != nil {
		<-cronRunner.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("searchsync exited")
}
