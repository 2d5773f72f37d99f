package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client 封裝一條 WebSocket 連線
type Client struct {
	conn      *websocket.Conn
	hub       *Hub
	log       zerolog.Logger
	userID    int64
	name      string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	room     *Room
	playerID string
}

// NewWebClient 建立客戶端；userID 為 0 代表訪客
func NewWebClient(conn *websocket.Conn, hub *Hub, userID int64, name string, logger zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		log:    logger,
		userID: userID,
		name:   name,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send 非阻塞地排入一則訊息；緩衝區滿時代表對方跟不上，直接斷線
func (c *Client) Send(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error().Err(err).Str("type", msg.Type).Msg("序列化訊息失敗")
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		go c.close()
	}
}

func (c *Client) ReadPump() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("讀取訊息異常")
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("訊息格式錯誤")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case msgLobbyList:
		c.hub.RegisterLobbyClient(c)
	case msgRoomCreate:
		if room, _ := c.membership(); room != nil {
			c.sendError(ErrAlreadyInRoom.Error())
			return
		}
		var payload CreateRoomPayload
		if !c.decode(msg, &payload) {
			return
		}
		room, playerID, err := c.hub.CreateRoom(c, c.displayName(payload.Name), c.userID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.attach(room, playerID)
	case msgRoomJoin:
		if room, _ := c.membership(); room != nil {
			c.sendError(ErrAlreadyInRoom.Error())
			return
		}
		var payload JoinRoomPayload
		if !c.decode(msg, &payload) {
			return
		}
		if payload.RoomID == "" {
			c.sendError("缺少房間 ID")
			return
		}
		room, playerID, err := c.hub.JoinRoom(payload.RoomID, c, c.displayName(payload.Name), c.userID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.attach(room, playerID)
	case msgRoomLeave:
		room, playerID := c.detach()
		if room == nil {
			c.sendError(ErrNotInRoom.Error())
			return
		}
		room.Leave(playerID)
		c.hub.RegisterLobbyClient(c)
	default:
		room, playerID := c.membership()
		if room == nil {
			c.sendError(ErrNotInRoom.Error())
			return
		}
		room.Dispatch(playerID, msg)
	}
}

func (c *Client) decode(msg ClientMessage, v interface{}) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.sendError("訊息格式錯誤")
		return false
	}
	return true
}

func (c *Client) displayName(requested string) string {
	if requested != "" {
		return requested
	}
	return c.name
}

func (c *Client) membership() (*Room, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.playerID
}

// attach 記錄加入的房間；若連線已在加入期間關閉則立即退出
func (c *Client) attach(room *Room, playerID string) {
	c.mu.Lock()
	c.room, c.playerID = room, playerID
	c.mu.Unlock()
	select {
	case <-c.done:
		if r, id := c.detach(); r != nil {
			r.Leave(id)
		}
	default:
	}
}

func (c *Client) detach() (*Room, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, playerID := c.room, c.playerID
	c.room, c.playerID = nil, ""
	return room, playerID
}

func (c *Client) sendError(message string) {
	c.Send(ServerMessage{Type: msgRoomError, Payload: ErrorPayload{Message: message}})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		room, playerID := c.detach()
		if c.hub != nil {
			c.hub.RemoveClient(c, room, playerID)
		}
	})
}
