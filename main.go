package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/coadwithAVI/aero-flight-sub000/internal/config"
	"github.com/coadwithAVI/aero-flight-sub000/internal/http/http_server"
	"github.com/coadwithAVI/aero-flight-sub000/internal/services/rooms"
	"github.com/coadwithAVI/aero-flight-sub000/internal/ws"
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

	// 3. Room store (process-lifetime, in-memory; restart drops every room)
	roomStore := rooms.NewRoomStore()

	// 4. WebSockets hub
	hub := ws.NewHub()

	// 5. Initialize the WS server
	wsSrv := ws.NewWsServer(hub, roomStore)

	// 6. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, cfg.PublicDir, wsSrv, roomStore)

	go func() {
		<-ctx.Done()
		Log.Info("Shutting down")
		if err := httpServer.Dispose(); err != nil {
			Log.Error("Shutdown failed", zap.Error(err))
		}
	}()

	if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
