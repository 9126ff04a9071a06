package ws

import (
	"encoding/json"

	"github.com/coadwithAVI/aero-flight-sub000/internal/services/rooms"
)

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "join-room"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// Inbound event names.
const (
	EventCreateRoom     = "create-room"
	EventJoinRoom       = "join-room"
	EventStartGame      = "start-game"
	EventPlayerMovement = "player-movement"
	EventPlayerFire     = "player-fire"
	EventRingCollected  = "ring-collected"
)

// Outbound event names.
const (
	EventRoomCreated  = "room-created"
	EventLobbyUpdate  = "lobby-update"
	EventGameStarting = "game-starting"
	EventPlayerMoved  = "player-moved"
	EventScoreUpdate  = "score-update"
	EventError        = "error"
)

// ──────────────────────────── Request DTOs ───────────────────────────────────

type CreateRoomRequest struct {
	Name string `json:"name" validate:"required"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type StartGameRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Seed   *int64 `json:"seed,omitempty"`
}

// RelayRequest carries an opaque gameplay payload the server forwards without
// interpreting (player-movement, player-fire).
type RelayRequest struct {
	RoomID  string          `json:"roomId" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type RingCollectedRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// ──────────────────────────── Broadcast DTOs ─────────────────────────────────

type RoomCreatedBody struct {
	RoomID  string            `json:"roomId"`
	Players []rooms.PlayerDTO `json:"players"`
	HostID  string            `json:"hostId"`
	Seed    int64             `json:"seed"`
}

type LobbyUpdateBody struct {
	RoomID  string            `json:"roomId"`
	Players []rooms.PlayerDTO `json:"players"`
	HostID  string            `json:"hostId"`
}

type GameStartingBody struct {
	Seed int64 `json:"seed"`
}

type PlayerMovedBody struct {
	Payload  json.RawMessage `json:"payload,omitempty"`
	PlayerID string          `json:"playerId"`
}

type PlayerFireBody struct {
	Payload   json.RawMessage `json:"payload,omitempty"`
	ShooterID string          `json:"shooterId"`
}

type ScoreUpdateBody struct {
	PlayerID string `json:"playerId"`
	Rings    int    `json:"rings"`
}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
