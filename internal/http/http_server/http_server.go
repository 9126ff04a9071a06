package http_server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coadwithAVI/aero-flight-sub000/internal/http/roomhandler"
	"github.com/coadwithAVI/aero-flight-sub000/internal/services/rooms"
	"github.com/coadwithAVI/aero-flight-sub000/internal/ws"
)

type httpServer struct {
	listenPort uint16
	publicDir  string
	srv        http.Server
	ln         net.Listener
	roomStore  rooms.IRoomStore
	wsSrv      *ws.WsServer
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, publicDir string, wsSrv *ws.WsServer, roomStore rooms.IRoomStore) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		publicDir:  publicDir,
		wsSrv:      wsSrv,
		roomStore:  roomStore,
		ctx:        ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	routerEngine := gin.New()

	// Static client bundle
	routerEngine.StaticFile("", filepath.Join(h.publicDir, "index.html"))
	routerEngine.StaticFile("/game.js", filepath.Join(h.publicDir, "game.js"))
	routerEngine.Static("/assets", filepath.Join(h.publicDir, "assets"))

	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// REST lobby listing
	rh := roomhandler.New(h.roomStore)
	rh.Register(routerEngine)

	h.srv = http.Server{
		Handler: routerEngine,
	}

	return h.srv.Serve(h.ln)
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in‑flight requests to finish.
func (h *httpServer) Dispose() error {
	// Create a context that times‑out after 10 s. Not derived from h.ctx:
	// Dispose runs after the signal context is already canceled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ask the server to shut down.
	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn’t finish in time
	}

	// If the context’s deadline expired, log it for observability.
	if ctx.Err() == context.DeadlineExceeded {
		zap.L().Error("http_dispose", zap.Error(errors.New("shutdown timed out")))
		log.Println("shutdown timeout (10 s)")
	}

	return nil
}
