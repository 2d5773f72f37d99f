package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"bennystab/internal/game"
)

var (
	ErrRoomNotFound  = errors.New("房間不存在")
	ErrRoomFull      = errors.New("房間已滿")
	ErrRoomStarted   = errors.New("遊戲已開始，無法加入")
	ErrNotInRoom     = errors.New("尚未加入房間")
	ErrAlreadyInRoom = errors.New("請先離開目前房間")
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// structuralError 把規則層的加入失敗轉成對外的房間錯誤
func structuralError(err error) error {
	switch {
	case errors.Is(err, game.ErrRoomFull):
		return ErrRoomFull
	case errors.Is(err, game.ErrGameStarted):
		return ErrRoomStarted
	default:
		return err
	}
}

// HubOptions 是所有房間共用的依賴
type HubOptions struct {
	Rules    game.Rules
	Logger   zerolog.Logger
	Recorder MatchRecorder
	Clock    Clock
}

// Hub 管理大廳與房間
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
	lobby map[Conn]struct{}
	opts  HubOptions
	log   zerolog.Logger
}

func NewHub(opts HubOptions) *Hub {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Hub{
		rooms: make(map[string]*Room),
		lobby: make(map[Conn]struct{}),
		opts:  opts,
		log:   opts.Logger.With().Str("component", "hub").Logger(),
	}
}

// RegisterLobbyClient 讓連線開始接收房間列表
func (h *Hub) RegisterLobbyClient(c Conn) {
	h.mu.Lock()
	h.lobby[c] = struct{}{}
	h.mu.Unlock()
	c.Send(ServerMessage{Type: msgLobbyRooms, Payload: LobbyRoomsPayload{Rooms: h.Rooms()}})
}

func (h *Hub) unregisterLobbyClient(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.lobby, c)
}

func (h *Hub) broadcastLobby() {
	msg := ServerMessage{Type: msgLobbyRooms, Payload: LobbyRoomsPayload{Rooms: h.Rooms()}}
	h.mu.Lock()
	targets := make([]Conn, 0, len(h.lobby))
	for c := range h.lobby {
		targets = append(targets, c)
	}
	h.mu.Unlock()
	for _, c := range targets {
		c.Send(msg)
	}
}

// Rooms 依房號排序回傳所有房間摘要
func (h *Hub) Rooms() []RoomSummary {
	h.mu.Lock()
	out := make([]RoomSummary, 0, len(h.rooms))
	for _, room := range h.rooms {
		out = append(out, room.Summary())
	}
	h.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// CreateRoom 建立新房間並讓建立者成為房主
func (h *Hub) CreateRoom(c Conn, name string, accountID int64) (*Room, string, error) {
	h.mu.Lock()
	code, err := h.newCodeLocked()
	if err != nil {
		h.mu.Unlock()
		return nil, "", err
	}
	room := NewRoom(code, RoomOptions{
		Rules:    h.opts.Rules,
		Clock:    h.opts.Clock,
		Random:   game.NewRandom(0),
		Logger:   h.opts.Logger,
		Recorder: h.opts.Recorder,
		OnEmpty:  h.removeRoom,
		OnChange: h.broadcastLobby,
	})
	h.rooms[code] = room
	h.mu.Unlock()

	go room.Run()
	playerID, err := room.Join(c, name, accountID)
	if err != nil {
		h.removeRoom(code)
		return nil, "", err
	}
	h.unregisterLobbyClient(c)
	h.log.Info().Str("room", code).Msg("建立房間")
	h.broadcastLobby()
	return room, playerID, nil
}

// JoinRoom 以房號加入既有房間，房號不分大小寫
func (h *Hub) JoinRoom(code string, c Conn, name string, accountID int64) (*Room, string, error) {
	room, ok := h.RoomByID(code)
	if !ok {
		return nil, "", ErrRoomNotFound
	}
	playerID, err := room.Join(c, name, accountID)
	if err != nil {
		return nil, "", err
	}
	h.unregisterLobbyClient(c)
	return room, playerID, nil
}

// RemoveClient 在連線關閉時清理大廳訂閱與房間席位
func (h *Hub) RemoveClient(c Conn, room *Room, playerID string) {
	h.unregisterLobbyClient(c)
	if room != nil && playerID != "" {
		room.Leave(playerID)
	}
}

// removeRoom 由房間在清空時呼叫
func (h *Hub) removeRoom(id string) {
	h.mu.Lock()
	room, ok := h.rooms[id]
	delete(h.rooms, id)
	h.mu.Unlock()
	if !ok {
		return
	}
	room.Stop()
	h.log.Info().Str("room", id).Msg("房間已清空並移除")
	h.broadcastLobby()
}

func (h *Hub) RoomByID(id string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[strings.ToUpper(strings.TrimSpace(id))]
	return room, ok
}

// Shutdown 停止所有房間
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for id, room := range h.rooms {
		rooms = append(rooms, room)
		delete(h.rooms, id)
	}
	h.mu.Unlock()
	for _, room := range rooms {
		room.Stop()
	}
}

func (h *Hub) newCodeLocked() (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("無法產生房號")
}

func randomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("產生房號: %w", err)
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf), nil
}
