package rooms_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coadwithAVI/aero-flight-sub000/internal/services/rooms"
	"github.com/coadwithAVI/aero-flight-sub000/internal/worldgen"
)

func TestCreateRoom(t *testing.T) {
	store := rooms.NewRoomStore()

	dto, left := store.CreateRoom("conn-a", "Ace")

	assert.Nil(t, left, "first room for this connection, nothing to leave")
	assert.Len(t, dto.RoomID, 6)
	assert.Equal(t, "conn-a", dto.HostID)
	assert.False(t, dto.GameStarted)
	assert.GreaterOrEqual(t, dto.Seed, int64(0))
	assert.Less(t, dto.Seed, int64(worldgen.SeedModulus))
	require.Len(t, dto.Players, 1)
	assert.Equal(t, rooms.PlayerDTO{ID: "conn-a", Name: "Ace", IsHost: true}, dto.Players[0])
}

func TestCreateRoomCodesDistinct(t *testing.T) {
	store := rooms.NewRoomStore()

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		dto, _ := store.CreateRoom(fmt.Sprintf("conn-%d", i), "p")
		_, dup := seen[dto.RoomID]
		require.False(t, dup, "duplicate room code %q", dto.RoomID)
		seen[dto.RoomID] = struct{}{}
	}
}

func TestCodesNotReusedAfterDeletion(t *testing.T) {
	store := rooms.NewRoomStore()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		// Same connection every time: each create deletes the previous
		// one-player room, so live rooms never exceed one.
		dto, _ := store.CreateRoom("conn-a", "Ace")
		_, dup := seen[dto.RoomID]
		require.False(t, dup, "room code %q reissued after its room was deleted", dto.RoomID)
		seen[dto.RoomID] = struct{}{}
	}
	assert.Len(t, store.ListRooms(), 1)
}

func TestJoinRoom(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")

	dto, left, err := store.JoinRoom(created.RoomID, "conn-b", "Maverick")
	require.NoError(t, err)

	assert.Nil(t, left)
	require.Len(t, dto.Players, 2)
	assert.Equal(t, "conn-a", dto.HostID)
	assert.Equal(t, "conn-b", dto.Players[1].ID)
	assert.False(t, dto.Players[1].IsHost)
}

func TestJoinRoomErrors(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")
	_, err := store.StartRoom(created.RoomID, "conn-a", nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		roomID  string
		wantErr error
	}{
		{name: "unknown code", roomID: "ZZZZZZ", wantErr: rooms.ErrRoomNotFound},
		{name: "already started", roomID: created.RoomID, wantErr: rooms.ErrRoomAlreadyStarted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := store.JoinRoom(tt.roomID, "conn-c", "Ghost")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Rejections never mutate: the started room still has one player.
	dto, ok := store.GetRoom(created.RoomID)
	require.True(t, ok)
	assert.Len(t, dto.Players, 1)
}

func TestJoinRoomRejectionKeepsCurrentMembership(t *testing.T) {
	store := rooms.NewRoomStore()
	r1, _ := store.CreateRoom("conn-a", "Ace")

	// A failed join of an unknown room must not detach A from its room.
	_, _, err := store.JoinRoom("ZZZZZZ", "conn-a", "Ace")
	require.ErrorIs(t, err, rooms.ErrRoomNotFound)
	assert.True(t, store.InRoom(r1.RoomID, "conn-a"))
}

func TestCreateRoomLeavesPreviousRoom(t *testing.T) {
	store := rooms.NewRoomStore()
	r1, _ := store.CreateRoom("conn-a", "Ace")
	_, _, err := store.JoinRoom(r1.RoomID, "conn-b", "Maverick")
	require.NoError(t, err)

	// The host of r1 opens a fresh room: it must leave r1 and hand the
	// hosting over, not linger there as a phantom host.
	r2, left := store.CreateRoom("conn-a", "Ace")
	require.NotNil(t, left)
	assert.Equal(t, r1.RoomID, left.RoomID)
	assert.False(t, left.RoomDeleted)
	assert.True(t, left.HostChanged)
	assert.Equal(t, "conn-b", left.Room.HostID)

	dto, ok := store.GetRoom(r1.RoomID)
	require.True(t, ok)
	assert.Equal(t, "conn-b", dto.HostID)
	require.Len(t, dto.Players, 1)
	assert.True(t, dto.Players[0].IsHost)
	assert.False(t, store.InRoom(r1.RoomID, "conn-a"))

	// Disconnect now only touches the current room; r1 stays with its host.
	rm, ok := store.RemoveConnection("conn-a")
	require.True(t, ok)
	assert.Equal(t, r2.RoomID, rm.RoomID)
	assert.True(t, rm.RoomDeleted)
	_, ok = store.GetRoom(r1.RoomID)
	assert.True(t, ok)
}

func TestJoinRoomLeavesPreviousRoom(t *testing.T) {
	store := rooms.NewRoomStore()
	r1, _ := store.CreateRoom("conn-a", "Ace")
	r2, _ := store.CreateRoom("conn-b", "Maverick")

	// A was r1's only member, so switching rooms deletes r1.
	dto, left, err := store.JoinRoom(r2.RoomID, "conn-a", "Ace")
	require.NoError(t, err)
	require.NotNil(t, left)
	assert.Equal(t, r1.RoomID, left.RoomID)
	assert.True(t, left.RoomDeleted)

	_, ok := store.GetRoom(r1.RoomID)
	assert.False(t, ok)
	require.Len(t, dto.Players, 2)
	assert.Equal(t, "conn-b", dto.HostID)
}

func TestJoinRoomRejoinIsNoop(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")

	dto, left, err := store.JoinRoom(created.RoomID, "conn-a", "Ace")
	require.NoError(t, err)
	assert.Nil(t, left)
	require.Len(t, dto.Players, 1)
	assert.True(t, store.InRoom(created.RoomID, "conn-a"))
}

func TestStartRoom(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")

	dto, err := store.StartRoom(created.RoomID, "conn-a", nil)
	require.NoError(t, err)
	assert.True(t, dto.GameStarted)
	assert.Equal(t, created.Seed, dto.Seed, "start without override keeps the creation seed")
}

func TestStartRoomSeedOverride(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")

	seed := int64(777)
	dto, err := store.StartRoom(created.RoomID, "conn-a", &seed)
	require.NoError(t, err)
	assert.Equal(t, int64(777), dto.Seed)
}

func TestStartRoomNotHost(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")
	_, _, err := store.JoinRoom(created.RoomID, "conn-b", "Maverick")
	require.NoError(t, err)

	_, err = store.StartRoom(created.RoomID, "conn-b", nil)
	assert.ErrorIs(t, err, rooms.ErrNotHost)

	dto, ok := store.GetRoom(created.RoomID)
	require.True(t, ok)
	assert.False(t, dto.GameStarted, "failed start must leave gameStarted false")
}

func TestStartRoomNotFound(t *testing.T) {
	store := rooms.NewRoomStore()
	_, err := store.StartRoom("ZZZZZZ", "conn-a", nil)
	assert.ErrorIs(t, err, rooms.ErrRoomNotFound)
}

func TestCollectRingAccumulates(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")

	_, n, err := store.CollectRing(created.RoomID, "conn-a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dto, n, err := store.CollectRing(created.RoomID, "conn-a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, dto.Players[0].Rings)
}

func TestCollectRingErrors(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")

	_, _, err := store.CollectRing("ZZZZZZ", "conn-a")
	assert.ErrorIs(t, err, rooms.ErrRoomNotFound)

	_, _, err = store.CollectRing(created.RoomID, "conn-x")
	assert.ErrorIs(t, err, rooms.ErrNotInRoom)
}

func TestRemoveConnectionReassignsHost(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")
	_, _, err := store.JoinRoom(created.RoomID, "conn-b", "Maverick")
	require.NoError(t, err)
	_, _, err = store.JoinRoom(created.RoomID, "conn-c", "Ghost")
	require.NoError(t, err)

	rm, ok := store.RemoveConnection("conn-a")
	require.True(t, ok)
	assert.False(t, rm.RoomDeleted)
	assert.True(t, rm.HostChanged)
	assert.Equal(t, "conn-b", rm.Room.HostID, "earliest joined player becomes host")
	require.Len(t, rm.Room.Players, 2)
	assert.True(t, rm.Room.Players[0].IsHost)
}

func TestRemoveConnectionDeletesEmptyRoom(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")

	rm, ok := store.RemoveConnection("conn-a")
	require.True(t, ok)
	assert.True(t, rm.RoomDeleted)

	_, ok = store.GetRoom(created.RoomID)
	assert.False(t, ok)
	assert.Empty(t, store.ListRooms())
}

func TestRemoveConnectionUnknown(t *testing.T) {
	store := rooms.NewRoomStore()
	_, ok := store.RemoveConnection("conn-x")
	assert.False(t, ok)
}

func TestMemberIDsAndInRoom(t *testing.T) {
	store := rooms.NewRoomStore()
	created, _ := store.CreateRoom("conn-a", "Ace")
	_, _, err := store.JoinRoom(created.RoomID, "conn-b", "Maverick")
	require.NoError(t, err)

	ids, ok := store.MemberIDs(created.RoomID)
	require.True(t, ok)
	assert.Equal(t, []string{"conn-a", "conn-b"}, ids)

	assert.True(t, store.InRoom(created.RoomID, "conn-b"))
	assert.False(t, store.InRoom(created.RoomID, "conn-x"))

	_, ok = store.MemberIDs("ZZZZZZ")
	assert.False(t, ok)
}

func TestListRooms(t *testing.T) {
	store := rooms.NewRoomStore()
	a, _ := store.CreateRoom("conn-a", "Ace")
	b, _ := store.CreateRoom("conn-b", "Maverick")

	list := store.ListRooms()
	require.Len(t, list, 2)

	got := map[string]bool{}
	for _, dto := range list {
		got[dto.RoomID] = true
	}
	assert.True(t, got[a.RoomID])
	assert.True(t, got[b.RoomID])
}
