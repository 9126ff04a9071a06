package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/coadwithAVI/aero-flight-sub000/internal/services/rooms"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait

	maxFrameSize   = 4096
	handlerTimeout = 1900 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bundle and the socket are served from the same origin; dev builds
	// hit the socket from a vite port, so origin checks stay off.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ConnContext identifies the sender inside handlers. Room membership is not
// mirrored here; the Room Store's connection index is the only copy.
type ConnContext struct {
	ConnID string
}

type WsServer struct {
	hub    *Hub
	router *Router
	store  rooms.IRoomStore
}

func NewWsServer(h *Hub, store rooms.IRoomStore) *WsServer {
	srv := &WsServer{
		hub:    h,
		router: NewRouter(),
		store:  store,
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	// ─────────────────── Client connected ────────────────────────
	wsConn := &clientConn{id: uuid.NewString(), rawConn: rawConn}
	s.hub.register(wsConn)
	zap.L().Debug("ws.connected", zap.String("conn_id", wsConn.id))

	go s.reader(wsConn)
	go s.pinger(wsConn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 create-room ----------------------------------------------------------
	Register(
		s.router,
		EventCreateRoom,
		func(ctx context.Context, cc *ConnContext, req CreateRoomRequest) error {
			dto, left := s.store.CreateRoom(cc.ConnID, req.Name)
			s.announceLeft(left)
			s.hub.Send(cc.ConnID, reply(EventRoomCreated, RoomCreatedBody{
				RoomID:  dto.RoomID,
				Players: dto.Players,
				HostID:  dto.HostID,
				Seed:    dto.Seed,
			}))
			return nil
		},
	)

	// 🔹 join-room ------------------------------------------------------------
	Register(
		s.router,
		EventJoinRoom,
		func(ctx context.Context, cc *ConnContext, req JoinRoomRequest) error {
			dto, left, err := s.store.JoinRoom(req.RoomID, cc.ConnID, req.Name)
			if err != nil {
				return err
			}
			s.announceLeft(left)
			s.broadcastLobby(dto)
			return nil
		},
	)

	// 🔹 start-game -----------------------------------------------------------
	Register(
		s.router,
		EventStartGame,
		func(ctx context.Context, cc *ConnContext, req StartGameRequest) error {
			dto, err := s.store.StartRoom(req.RoomID, cc.ConnID, req.Seed)
			if err != nil {
				return err
			}
			// Same seed for every recipient; never derived per client.
			if ids, ok := s.store.MemberIDs(dto.RoomID); ok {
				s.hub.Broadcast(ids, reply(EventGameStarting, GameStartingBody{Seed: dto.Seed}))
			}
			return nil
		},
	)

	// 🔹 player-movement (pure relay) ----------------------------------------
	Register(
		s.router,
		EventPlayerMovement,
		func(ctx context.Context, cc *ConnContext, req RelayRequest) error {
			return s.relay(cc, req, EventPlayerMoved, func(p json.RawMessage) any {
				return PlayerMovedBody{Payload: p, PlayerID: cc.ConnID}
			})
		},
	)

	// 🔹 player-fire (pure relay) --------------------------------------------
	Register(
		s.router,
		EventPlayerFire,
		func(ctx context.Context, cc *ConnContext, req RelayRequest) error {
			return s.relay(cc, req, EventPlayerFire, func(p json.RawMessage) any {
				return PlayerFireBody{Payload: p, ShooterID: cc.ConnID}
			})
		},
	)

	// 🔹 ring-collected -------------------------------------------------------
	Register(
		s.router,
		EventRingCollected,
		func(ctx context.Context, cc *ConnContext, req RingCollectedRequest) error {
			dto, ringCount, err := s.store.CollectRing(req.RoomID, cc.ConnID)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(dto.Players))
			for _, p := range dto.Players {
				ids = append(ids, p.ID)
			}
			s.hub.Broadcast(ids, reply(EventScoreUpdate, ScoreUpdateBody{
				PlayerID: cc.ConnID,
				Rings:    ringCount,
			}))
			return nil
		},
	)
}

// relay forwards an opaque gameplay payload to everyone in the room except
// the sender. The server never inspects the payload.
func (s *WsServer) relay(cc *ConnContext, req RelayRequest, event string, body func(json.RawMessage) any) error {
	if !s.store.InRoom(req.RoomID, cc.ConnID) {
		return rooms.ErrNotInRoom
	}
	if ids, ok := s.store.MemberIDs(req.RoomID); ok {
		s.hub.BroadcastExcept(ids, cc.ConnID, reply(event, body(req.Payload)))
	}
	return nil
}

// announceLeft tells a room its member switched away (created or joined
// another room); same outbound shape as any other departure.
func (s *WsServer) announceLeft(left *rooms.Removal) {
	if left != nil && !left.RoomDeleted {
		s.broadcastLobby(left.Room)
	}
}

func (s *WsServer) broadcastLobby(dto rooms.RoomDTO) {
	ids := make([]string, 0, len(dto.Players))
	for _, p := range dto.Players {
		ids = append(ids, p.ID)
	}
	s.hub.Broadcast(ids, reply(EventLobbyUpdate, LobbyUpdateBody{
		RoomID:  dto.RoomID,
		Players: dto.Players,
		HostID:  dto.HostID,
	}))
}

func reply(event string, body any) map[string]any {
	return map[string]any{"event": event, "body": body}
}

func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		s.hub.unregister(conn.id)
		s.cleanupConnection(conn.id)
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: conn.id}

	for {
		_, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			_ = conn.writeJSON(reply(EventError, ErrorBody{Error: ErrMalformedPayload.Error()}))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		err = s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		// Reported to the sender only; a rejected event never mutated
		// anything, so there is nothing to broadcast.
		if err != nil {
			zap.L().Debug("ws.event_rejected",
				zap.String("conn_id", conn.id),
				zap.String("event", env.Event),
				zap.Error(err),
			)
			_ = conn.writeJSON(reply(EventError, ErrorBody{Error: err.Error()}))
		}
	}
}

// cleanupConnection runs once per connection, after its reader exits.
// Disconnection is lifecycle, not an error: the player leaves its room, the
// host hands off if needed, and survivors get a fresh lobby-update.
func (s *WsServer) cleanupConnection(connID string) {
	rm, ok := s.store.RemoveConnection(connID)
	if !ok {
		zap.L().Debug("ws.disconnected", zap.String("conn_id", connID))
		return
	}
	zap.L().Info("ws.disconnected",
		zap.String("conn_id", connID),
		zap.String("room_id", rm.RoomID),
		zap.Bool("room_deleted", rm.RoomDeleted),
	)
	if !rm.RoomDeleted {
		s.broadcastLobby(rm.Room)
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.write(websocket.PingMessage, nil); err != nil {
			return // reader teardown closes the conn
		}
	}
}
