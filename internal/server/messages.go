package server

import (
	"encoding/json"

	"bennystab/internal/game"
)

// ClientMessage 定義 WebSocket 客戶端發送的通用訊息格式
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage 是伺服器端對外推送的通用訊息格式
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// 客戶端訊息類型
const (
	msgLobbyList  = "lobby:list"
	msgRoomCreate = "room:create"
	msgRoomJoin   = "room:join"
	msgRoomLeave  = "room:leave"
	msgRoomReset  = "room:reset"
	msgSkinSelect = "lobby:skinSelect"
	msgReady      = "lobby:ready"
	msgStart      = "lobby:start"
	msgMove       = "game:move"
	msgInteract   = "game:interact"
	msgKill       = "game:kill"
	msgSabotage   = "game:sabotage"
	msgVoteCast   = "vote:cast"
	msgChatSend   = "chat:send"
)

// 伺服器訊息類型
const (
	msgWelcome         = "welcome"
	msgLobbyRooms      = "lobby:rooms"
	msgRoomState       = "room:state"
	msgSkinsUpdate     = "skins:update"
	msgGameStart       = "game:start"
	msgGameTasks       = "game:tasks"
	msgTaskUpdate      = "game:taskUpdate"
	msgPlayersUpdate   = "game:playersUpdate"
	msgDiscussionStart = "discussion:start"
	msgVoteStart       = "vote:start"
	msgVoteResult      = "vote:result"
	msgGameEvent       = "game:event"
	msgChatRecv        = "chat:recv"
	msgGameEnd         = "game:end"
	msgRoomError       = "room:error"
	msgFeedback        = "game:feedback"
)

// game:interact 的子類型
const (
	interactReport      = "report"
	interactRepair      = "repair"
	interactEmergency   = "emergency"
	interactInvestigate = "investigate"
	interactJournalPeek = "journalPeek"
	interactReveal      = "comptableReveal"
	interactHint        = "depanneurHint"
	interactTask        = "task"
)

// 大廳與房間管理請求
type CreateRoomPayload struct {
	Name string `json:"name"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// 大廳階段請求
type SkinSelectPayload struct {
	Skin game.Skin `json:"skin"`
}

type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// 對局階段請求
type MovePayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type InteractPayload struct {
	Type     string `json:"type"`
	TargetID string `json:"targetId,omitempty"`
}

type TargetPayload struct {
	TargetID string `json:"targetId"`
}

type SabotagePayload struct {
	Type game.SabotageKind `json:"type"`
}

type ChatPayload struct {
	Text string `json:"text"`
}

// 大廳資訊
type RoomSummary struct {
	RoomID   string     `json:"roomId"`
	Status   game.Phase `json:"status"`
	Players  int        `json:"players"`
	Capacity int        `json:"capacity"`
	Host     string     `json:"host"`
}

type LobbyRoomsPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

type WelcomePayload struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
}

type SkinsPayload struct {
	Taken []game.Skin `json:"taken"`
}

// GameStartPayload 只送給玩家本人；Allies 僅破壞者會收到
type GameStartPayload struct {
	Role   game.Role `json:"role"`
	Team   game.Team `json:"team"`
	MapID  string    `json:"mapId"`
	Allies []string  `json:"allies,omitempty"`
}

type TasksPayload struct {
	Tasks []*game.Task `json:"tasks"`
}

type TaskUpdatePayload struct {
	Task *game.Task `json:"task"`
}

type PlayersPayload struct {
	Players  []game.PlayerPosition `json:"players"`
	Sabotage *game.Sabotage        `json:"sabotage,omitempty"`
}

type DiscussionPayload struct {
	Reason     game.Meeting `json:"reason"`
	DurationMs int64        `json:"durationMs"`
}

type VoteStartPayload struct {
	DurationMs int64 `json:"durationMs"`
}

// GameEvent 是通用事件封包，依 Type 帶不同欄位
type GameEvent struct {
	Type       string   `json:"type"`
	VictimID   string   `json:"victimId,omitempty"`
	TargetID   string   `json:"targetId,omitempty"`
	Hint       string   `json:"hint,omitempty"`
	Text       string   `json:"text,omitempty"`
	Message    string   `json:"message,omitempty"`
	Entries    []string `json:"entries,omitempty"`
	Sabotage   string   `json:"sabotage,omitempty"`
	DurationMs int64    `json:"durationMs,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// 事件類型
const (
	eventKill          = "kill"
	eventInvestigation = "investigationResult"
	eventJournal       = "comptableJournal"
	eventReveal        = "comptableReveal"
	eventHint          = "depanneurHint"
	eventSabotageStart = "sabotageStart"
	eventSabotageEnd   = "sabotageEnd"
	eventTaskNoise     = "taskNoise"
)

// sabotageEnd 的結束原因
const (
	reasonTimeout = "timeout"
	reasonRepair  = "repair"
)

type ErrorPayload struct {
	Message string `json:"message"`
}

type FeedbackPayload struct {
	Code    game.RejectCode `json:"code,omitempty"`
	Message string          `json:"message"`
}
