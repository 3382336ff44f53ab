package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"moviedrawgo/internal/config"
	"moviedrawgo/internal/database/db_client"
	"moviedrawgo/internal/database/pgstore"
	"moviedrawgo/internal/http/http_server"
	"moviedrawgo/internal/presence"
	"moviedrawgo/internal/redis/redis_client"
	"moviedrawgo/internal/redis/redis_functions"
	"moviedrawgo/internal/redis/revealgate"
	"moviedrawgo/internal/services/room"
	"moviedrawgo/internal/sweeper"
	"moviedrawgo/internal/ws"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var roomService room.IRoomService

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, cfg.RedisPort)
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// Load the Redis Functions lua
	if err := redis_functions.LoadAll(ctx, redisClient); err != nil {
		Log.Fatal("load-redis-funcs", zap.Error(err))
	}

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	if err := db_client.Migrate(ctx, pgDb); err != nil {
		Log.Fatal("pg-migrate", zap.Error(err))
	}

	roomStore := pgstore.NewRoomStore(pgDb)

	// 5. WebSockets hub + Redis fan‑out
	hub := ws.NewHub()
	channel := ws.NewRedisChannel(redisClient, hub)
	defer channel.Shutdown()

	// 6. Room service
	roomService = room.NewRoomService(
		roomStore,
		pgstore.NewCatalog(pgDb),
		pgstore.NewHistoryStore(pgDb),
		channel,
		presence.NewRegistry(),
		room.Options{
			RevealDelay:    cfg.RevealDelay,
			RoomCodeLength: cfg.RoomCodeLength,
			IOTimeout:      cfg.StoreTimeout,
			Gate:           revealgate.New(redisClient),
		},
	)
	defer roomService.Shutdown()

	// 7. Background: idle room sweeper
	sweeper.New(redisClient, roomStore, roomService, sweeper.Options{
		IdleTTL:  cfg.RoomIdleTTL,
		Interval: cfg.SweepInterval,
		Owner:    uuid.NewString(),
	}).Run(ctx)

	// 8. Initialize the WS server
	wsSrv := ws.NewWsServer(channel, roomService, cfg.StoreTimeout)

	// 9. HTTP + WS server, returns after a graceful shutdown
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, roomService, cfg.StoreTimeout)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
	Log.Info("shutdown complete")
}
