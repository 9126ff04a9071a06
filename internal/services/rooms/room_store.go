package rooms

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"github.com/coadwithAVI/aero-flight-sub000/internal/worldgen"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomAlreadyStarted = errors.New("game already started")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrNotInRoom          = errors.New("player is not in this room")
)

// PlayerDTO is one entry of a room's player list, in join order.
type PlayerDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Rings  int    `json:"rings"`
}

// RoomDTO is an immutable snapshot of a room; callers never see live state.
type RoomDTO struct {
	RoomID      string      `json:"roomId"`
	HostID      string      `json:"hostId"`
	Seed        int64       `json:"seed"`
	GameStarted bool        `json:"gameStarted"`
	Players     []PlayerDTO `json:"players"`
}

// Removal describes the outcome of RemoveConnection.
type Removal struct {
	RoomID      string
	PlayerID    string
	RoomDeleted bool
	HostChanged bool
	Room        RoomDTO // valid only when !RoomDeleted
}

type IRoomStore interface {
	CreateRoom(creatorID, name string) (RoomDTO, *Removal)
	JoinRoom(roomID, joinerID, name string) (RoomDTO, *Removal, error)
	GetRoom(roomID string) (RoomDTO, bool)
	StartRoom(roomID, requesterID string, seedOverride *int64) (RoomDTO, error)
	CollectRing(roomID, playerID string) (RoomDTO, int, error)
	MemberIDs(roomID string) ([]string, bool)
	InRoom(roomID, connID string) bool
	RemoveConnection(connID string) (Removal, bool)
	ListRooms() []RoomDTO
}

type player struct {
	id     string
	name   string
	isHost bool
	rings  int
}

type room struct {
	id          string
	hostID      string
	seed        int64
	gameStarted bool
	players     []*player // join order
}

// roomStore is the only owner of room and player records. A single mutex
// serializes every operation: the players slice and the gameStarted check
// are not atomic across goroutines otherwise.
type roomStore struct {
	mu        sync.Mutex
	rooms     map[string]*room
	connRoom  map[string]string   // connID -> roomID
	usedCodes map[string]struct{} // every code ever issued; unique for process lifetime
}

var _ IRoomStore = (*roomStore)(nil)

func NewRoomStore() IRoomStore {
	return &roomStore{
		rooms:     make(map[string]*room),
		connRoom:  make(map[string]string),
		usedCodes: make(map[string]struct{}),
	}
}

// CreateRoom always succeeds. A connection holds at most one membership, so
// creating while still in a room detaches it from that room first; the
// returned Removal (nil if there was no previous room) tells the caller what
// to re-announce there.
func (s *roomStore) CreateRoom(creatorID, name string) (RoomDTO, *Removal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var left *Removal
	if rm, ok := s.detachLocked(creatorID); ok {
		left = &rm
	}

	code := s.freshCode()
	r := &room{
		id:     code,
		hostID: creatorID,
		seed:   worldgen.NewSeed(),
		players: []*player{
			{id: creatorID, name: name, isHost: true},
		},
	}
	s.rooms[code] = r
	s.connRoom[creatorID] = code

	zap.L().Info("room_created",
		zap.String("room_id", code),
		zap.String("host_id", creatorID),
		zap.Int64("seed", r.seed),
	)
	return snapshot(r), left
}

// JoinRoom rejects before it mutates: a failed join leaves every room, the
// joiner's current one included, untouched. On success the joiner is detached
// from its previous room (if any) the same way CreateRoom does.
func (s *roomStore) JoinRoom(roomID, joinerID, name string) (RoomDTO, *Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return RoomDTO{}, nil, ErrRoomNotFound
	}
	if r.gameStarted {
		return RoomDTO{}, nil, ErrRoomAlreadyStarted
	}

	// Re-join of the current room is a no-op for the player list.
	if r.member(joinerID) != nil {
		return snapshot(r), nil, nil
	}

	var left *Removal
	if rm, ok := s.detachLocked(joinerID); ok {
		left = &rm
	}

	r.players = append(r.players, &player{id: joinerID, name: name})
	s.connRoom[joinerID] = roomID

	zap.L().Info("player_joined",
		zap.String("room_id", roomID),
		zap.String("player_id", joinerID),
		zap.Int("players", len(r.players)),
	)
	return snapshot(r), left, nil
}

func (s *roomStore) GetRoom(roomID string) (RoomDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return RoomDTO{}, false
	}
	return snapshot(r), true
}

func (s *roomStore) StartRoom(roomID, requesterID string, seedOverride *int64) (RoomDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return RoomDTO{}, ErrRoomNotFound
	}
	if r.hostID != requesterID {
		return RoomDTO{}, ErrNotHost
	}

	r.gameStarted = true
	if seedOverride != nil {
		r.seed = *seedOverride
	}

	zap.L().Info("game_started",
		zap.String("room_id", roomID),
		zap.Int64("seed", r.seed),
	)
	return snapshot(r), nil
}

func (s *roomStore) CollectRing(roomID, playerID string) (RoomDTO, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return RoomDTO{}, 0, ErrRoomNotFound
	}
	p := r.member(playerID)
	if p == nil {
		return RoomDTO{}, 0, ErrNotInRoom
	}

	p.rings++
	return snapshot(r), p.rings, nil
}

func (s *roomStore) MemberIDs(roomID string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.id)
	}
	return ids, true
}

func (s *roomStore) InRoom(roomID, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	return ok && r.member(connID) != nil
}

// RemoveConnection drops the connection's player from whatever room it is in.
// An emptied room is deleted immediately; a departing host hands authority to
// the earliest-joined remaining player.
func (s *roomStore) RemoveConnection(connID string) (Removal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.detachLocked(connID)
}

// detachLocked removes the connection's player from its current room,
// promoting a new host or deleting the emptied room. Shared by disconnects
// and by create/join switching rooms. Caller holds s.mu.
func (s *roomStore) detachLocked(connID string) (Removal, bool) {
	roomID, ok := s.connRoom[connID]
	if !ok {
		return Removal{}, false
	}
	delete(s.connRoom, connID)

	r, ok := s.rooms[roomID]
	if !ok {
		return Removal{}, false
	}

	idx := -1
	for i, p := range r.players {
		if p.id == connID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Removal{}, false
	}

	wasHost := r.players[idx].isHost
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	rm := Removal{RoomID: roomID, PlayerID: connID}

	if len(r.players) == 0 {
		delete(s.rooms, roomID)
		rm.RoomDeleted = true
		zap.L().Info("room_deleted", zap.String("room_id", roomID))
		return rm, true
	}

	if wasHost {
		next := r.players[0]
		next.isHost = true
		r.hostID = next.id
		rm.HostChanged = true
		zap.L().Info("host_reassigned",
			zap.String("room_id", roomID),
			zap.String("host_id", next.id),
		)
	}

	rm.Room = snapshot(r)
	return rm, true
}

func (s *roomStore) ListRooms() []RoomDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RoomDTO, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, snapshot(r))
	}
	return out
}

// ─────────────────────────────── internals ──────────────────────────────────

const codeLength = 6
const codeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// freshCode generates a room code, retrying on the (unlikely) collision.
// Checked against every code ever issued, not just live rooms: codes stay
// unique for the process lifetime even after their room is deleted.
// Caller holds s.mu.
func (s *roomStore) freshCode() string {
	for {
		code := randomCode(codeLength)
		if _, exists := s.usedCodes[code]; !exists {
			s.usedCodes[code] = struct{}{}
			return code
		}
	}
}

func randomCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}

func (r *room) member(connID string) *player {
	for _, p := range r.players {
		if p.id == connID {
			return p
		}
	}
	return nil
}

// snapshot copies the room into a DTO. Caller holds the store mutex.
func snapshot(r *room) RoomDTO {
	players := make([]PlayerDTO, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerDTO{
			ID:     p.id,
			Name:   p.name,
			IsHost: p.isHost,
			Rings:  p.rings,
		})
	}
	return RoomDTO{
		RoomID:      r.id,
		HostID:      r.hostID,
		Seed:        r.seed,
		GameStarted: r.gameStarted,
		Players:     players,
	}
}
