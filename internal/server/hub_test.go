package server

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennystab/internal/game"
)

func newTestHub(t *testing.T, maxPlayers int) *Hub {
	t.Helper()
	rules := game.DefaultRules()
	rules.MaxPlayers = maxPlayers
	h := NewHub(HubOptions{Rules: rules, Logger: zerolog.Nop(), Clock: newFakeClock()})
	t.Cleanup(h.Shutdown)
	return h
}

func noRooms(h *Hub) func() bool {
	return func() bool { return len(h.Rooms()) == 0 }
}

func TestHubCreateAndJoinByCode(t *testing.T) {
	h := newTestHub(t, 8)
	lobby := &recordingConn{}
	h.RegisterLobbyClient(lobby)
	require.Len(t, lobby.ofType(msgLobbyRooms), 1)

	hostConn := &recordingConn{}
	room, hostID, err := h.CreateRoom(hostConn, "房主", 0)
	require.NoError(t, err)
	require.NotEmpty(t, hostID)

	code := room.ID()
	require.Len(t, code, roomCodeLength)
	for _, ch := range code {
		assert.True(t, strings.ContainsRune(roomCodeAlphabet, ch), "房號含非法字元 %q", ch)
	}

	guest := &recordingConn{}
	joined, guestID, err := h.JoinRoom(strings.ToLower(code), guest, "訪客", 0)
	require.NoError(t, err)
	assert.Same(t, room, joined)
	assert.NotEqual(t, hostID, guestID)

	assert.Eventually(t, func() bool {
		rooms := h.Rooms()
		return len(rooms) == 1 && rooms[0].Players == 2 && rooms[0].Host == "房主"
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(lobby.ofType(msgLobbyRooms)) >= 2
	}, time.Second, 5*time.Millisecond, "大廳應收到房間列表更新")
	assert.Empty(t, hostConn.ofType(msgLobbyRooms), "建立房間後不再訂閱大廳")
}

func TestHubJoinErrors(t *testing.T) {
	h := newTestHub(t, 4)

	_, _, err := h.JoinRoom("NOPE99", &recordingConn{}, "A", 0)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	room, _, err := h.CreateRoom(&recordingConn{}, "A", 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, _, err := h.JoinRoom(room.ID(), &recordingConn{}, "B", 0)
		require.NoError(t, err)
	}
	_, _, err = h.JoinRoom(room.ID(), &recordingConn{}, "E", 0)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestHubRemovesRoomWhenLastPlayerLeaves(t *testing.T) {
	h := newTestHub(t, 8)
	conn := &recordingConn{}
	room, playerID, err := h.CreateRoom(conn, "A", 0)
	require.NoError(t, err)

	h.RemoveClient(conn, room, playerID)

	assert.Eventually(t, noRooms(h), time.Second, 5*time.Millisecond)
	_, ok := h.RoomByID(room.ID())
	assert.False(t, ok)
	_, err = room.Join(&recordingConn{}, "B", 0)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestStructuralErrorMapping(t *testing.T) {
	assert.Equal(t, ErrRoomFull, structuralError(game.ErrRoomFull))
	assert.Equal(t, ErrRoomStarted, structuralError(game.ErrGameStarted))
	assert.Equal(t, game.ErrPlayerNotFound, structuralError(game.ErrPlayerNotFound))
}
