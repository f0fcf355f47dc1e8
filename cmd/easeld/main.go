package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/easel/internal/api"
	"github.com/dyluth/easel/internal/broadcast"
	"github.com/dyluth/easel/internal/config"
	"github.com/dyluth/easel/internal/items"
	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/lock"
	"github.com/dyluth/easel/internal/session"
	"github.com/dyluth/easel/pkg/board"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load configuration: easel.yml (or EASEL_CONFIG), then environment overrides
	path := os.Getenv("EASEL_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load %s: %v\n", path, err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.Getenv)
	if cfg.Broadcast.InstanceID == "" {
		cfg.Broadcast.InstanceID = uuid.NewString()
	}

	// 2. Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Printf("[ERROR] [easeld] %v", err)
		os.Exit(1)
	}
	log.Printf("[INFO] [easeld] Stopped")
}

// run wires the store, hub and service together and serves until ctx ends.
func run(ctx context.Context, cfg *config.EaselConfig) error {
	store, redisStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisStore.Close()

	hubOpts := []broadcast.Option{
		broadcast.WithBufferSize(cfg.Broadcast.BufferSize),
		broadcast.WithHeartbeat(cfg.Broadcast.HeartbeatInterval),
		broadcast.WithRelay(cfg.Broadcast.InstanceID, redisStore),
	}
	// Sessions served from memory are local to this instance
	if fallback, ok := store.(*board.FallbackStore); ok {
		hubOpts = append(hubOpts, broadcast.WithRelayPause(fallback.Degraded))
	}
	hub := broadcast.NewHub(hubOpts...)
	go hub.Run(ctx)
	go func() {
		if err := broadcast.RunRelay(ctx, hub, redisStore); err != nil {
			log.Printf("[WARN] [easeld] Cross-instance events disabled: %v", err)
		}
	}()

	engine, err := layout.NewEngine(cfg.Zones(), layout.WithFreeArea(cfg.FreeArea()))
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	svc := items.NewService(store, lock.New(cfg.Lock.WaitTimeout), engine, hub)
	server := api.NewServer(svc, session.NewResolver(cfg.Session.Mode), hub, store)

	log.Printf("[INFO] [easeld] Starting (instance=%s, store=%s, session mode=%s)",
		cfg.Broadcast.InstanceID, store.Backend(), cfg.Session.Mode)

	srv := api.NewHTTPServer(cfg.Server.Addr, server.Handler(), hub)
	return api.Run(ctx, srv, cfg.Server.ShutdownTimeout)
}

// openStore connects to Redis. Unless store.require_durable is set, sessions
// fall back to memory whenever Redis fails, including at startup.
func openStore(ctx context.Context, cfg *config.EaselConfig) (board.Store, *board.RedisStore, error) {
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}

	redisStore := board.NewRedisStore(redisOpts,
		board.WithNamespace(cfg.Redis.Namespace),
		board.WithSessionTTL(cfg.Store.SessionTTL),
		board.WithOpTimeout(cfg.Store.OpTimeout),
	)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pingErr := redisStore.Ping(pingCtx)

	if cfg.Store.RequireDurable {
		if pingErr != nil {
			redisStore.Close()
			return nil, nil, fmt.Errorf("redis not accessible and store.require_durable is set: %w", pingErr)
		}
		log.Printf("[INFO] [easeld] Using Redis at %s (namespace %q)", redisOpts.Addr, cfg.Redis.Namespace)
		return redisStore, redisStore, nil
	}

	if pingErr != nil {
		log.Printf("[WARN] [easeld] Redis not accessible, sessions will be kept in memory: %v", pingErr)
	} else {
		log.Printf("[INFO] [easeld] Using Redis at %s (namespace %q), memory fallback enabled", redisOpts.Addr, cfg.Redis.Namespace)
	}
	return board.NewFallbackStore(redisStore, board.NewMemoryStore(cfg.Store.SessionTTL)), redisStore, nil
}
