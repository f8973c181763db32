package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studylobby/internal/archive"
	"studylobby/internal/auth"
	"studylobby/internal/config"
	"studylobby/internal/database/db_client"
	"studylobby/internal/directory"
	"studylobby/internal/http/http_server"
	"studylobby/internal/http/lobbyhandler"
	"studylobby/internal/redis/redis_client"
	"studylobby/internal/services/lobby"
	"studylobby/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (directory-change fan-out to edge caches)
	redisClient, err := redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres (closed-session archive)
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	archiveWriter := archive.NewWriter(pgDb)
	if err := archiveWriter.EnsureSchema(ctx); err != nil {
		Log.Fatal("archive-schema", zap.Error(err))
	}
	// The archive outlives the signal context: shutdown force-close still
	// produces records that must be drained.
	archCtx, archCancel := context.WithCancel(context.Background())
	archiveWriter.Run(archCtx)

	dirPublisher := directory.NewPublisher(redisClient)
	dirPublisher.Run(ctx)

	// 5. Coordinator: store, connection registry, hub, lobby service
	store := lobby.NewStore(cfg.LobbyNameMaxLen)
	registry := ws.NewRegistry()
	hub := ws.NewHub(registry)
	lobbySvc := lobby.NewLobbyService(store, hub, dirPublisher, archiveWriter)

	// 6. WS + HTTP servers
	verifier := auth.NewVerifier(cfg.JwtSecret)
	wsSrv := ws.NewWsServer(registry, hub, verifier, lobbySvc)
	lobbyHandler := lobbyhandler.New(lobbySvc, verifier)
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, lobbyHandler)

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		lobbySvc.Shutdown(shCtx)
		_ = httpServer.Dispose()
	}()

	Log.Info("study lobby coordinator listening", zap.Uint16("port", cfg.HttpServerPort))
	if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	// Flush whatever the force-close archived before exiting.
	archCancel()
	archiveWriter.Wait()
}
