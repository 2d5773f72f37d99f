package server

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bennystab/internal/game"
	"bennystab/internal/server/store"
)

const (
	inboxSize     = 256
	maxNameLength = 16
	defaultName   = "玩家"
	recordTimeout = 5 * time.Second
)

// Conn 是房間推送訊息的對象
type Conn interface {
	Send(msg ServerMessage)
}

// MatchRecorder 保存已結束的對局
type MatchRecorder interface {
	RecordMatch(ctx context.Context, m store.MatchRecord) (string, error)
}

// RoomOptions 是建立房間時的依賴
type RoomOptions struct {
	Rules    game.Rules
	Clock    Clock
	Random   game.Random
	Logger   zerolog.Logger
	Recorder MatchRecorder
	// OnEmpty 在最後一名玩家離開後呼叫，呼叫時仍位於房間的事件迴圈中
	OnEmpty  func(id string)
	// OnChange 在大廳可見的摘要改變時呼叫
	OnChange func()
}

// Room 負責管理單一遊戲房間的生命週期；所有狀態只在 Run 的事件迴圈中修改
type Room struct {
	id       string
	inbox    chan any
	quit     chan struct{}
	stopOnce sync.Once

	game     *game.Game
	conns    map[string]Conn
	sched    *scheduler
	clock    Clock
	log      zerolog.Logger
	recorder MatchRecorder
	onEmpty  func(id string)
	onChange func()
	closed   bool

	summary atomic.Pointer[RoomSummary]
}

type joinRequest struct {
	conn      Conn
	name      string
	accountID int64
	reply     chan joinReply
}

type joinReply struct {
	playerID string
	err      error
}

type leaveRequest struct {
	playerID string
}

type intent struct {
	playerID string
	msg      ClientMessage
}

func NewRoom(id string, opts RoomOptions) *Room {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	r := &Room{
		id:       id,
		inbox:    make(chan any, inboxSize),
		quit:     make(chan struct{}),
		conns:    make(map[string]Conn),
		clock:    opts.Clock,
		log:      opts.Logger.With().Str("room", id).Logger(),
		recorder: opts.Recorder,
		onEmpty:  opts.OnEmpty,
		onChange: opts.OnChange,
	}
	r.game = game.NewGame(id, opts.Rules, opts.Random)
	r.sched = newScheduler(opts.Clock, func(ev any) { r.post(ev) })
	r.refreshSummary()
	return r
}

func (r *Room) ID() string {
	return r.id
}

// Summary 回傳最近一次事件處理後的房間摘要，可在任何 goroutine 呼叫
func (r *Room) Summary() RoomSummary {
	return *r.summary.Load()
}

// Run 執行房間的事件迴圈，直到 Stop 被呼叫
func (r *Room) Run() {
	for {
		select {
		case <-r.quit:
			r.sched.cancelAll()
			return
		case ev := <-r.inbox:
			r.handle(ev)
		}
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
}

func (r *Room) post(ev any) bool {
	select {
	case r.inbox <- ev:
		return true
	case <-r.quit:
		return false
	}
}

// Join 將連線加入房間並回傳分配的玩家編號
func (r *Room) Join(conn Conn, name string, accountID int64) (string, error) {
	reply := make(chan joinReply, 1)
	if !r.post(joinRequest{conn: conn, name: name, accountID: accountID, reply: reply}) {
		return "", ErrRoomNotFound
	}
	select {
	case res := <-reply:
		return res.playerID, res.err
	case <-r.quit:
		return "", ErrRoomNotFound
	}
}

// Leave 將玩家移出房間（離開或斷線）
func (r *Room) Leave(playerID string) {
	r.post(leaveRequest{playerID: playerID})
}

// Dispatch 將玩家的請求排入事件迴圈
func (r *Room) Dispatch(playerID string, msg ClientMessage) {
	r.post(intent{playerID: playerID, msg: msg})
}

func (r *Room) handle(ev any) {
	before := r.Summary()
	switch e := ev.(type) {
	case joinRequest:
		r.handleJoin(e)
	case leaveRequest:
		r.handleLeave(e.playerID)
	case intent:
		r.handleIntent(e.playerID, e.msg)
	case timerFired:
		if r.sched.claim(e) {
			r.handleTimer(e.key)
		}
	}
	r.refreshSummary()
	if r.onChange != nil && r.Summary() != before {
		r.onChange()
	}
}

func (r *Room) handleJoin(req joinRequest) {
	if r.closed {
		req.reply <- joinReply{err: ErrRoomNotFound}
		return
	}
	id := uuid.NewString()
	p, err := r.game.AddPlayer(id, cleanName(req.name), req.accountID)
	if err != nil {
		req.reply <- joinReply{err: structuralError(err)}
		return
	}
	r.conns[id] = req.conn
	req.reply <- joinReply{playerID: id}

	r.log.Info().Str("player", id).Str("name", p.Name).Int("players", r.game.Len()).Msg("玩家加入房間")
	req.conn.Send(ServerMessage{Type: msgWelcome, Payload: WelcomePayload{PlayerID: id, RoomID: r.id}})
	r.broadcastRoomState()
	r.sendTo(id, msgSkinsUpdate, SkinsPayload{Taken: r.game.TakenSkins()})
}

func (r *Room) handleLeave(playerID string) {
	if !r.game.RemovePlayer(playerID) {
		return
	}
	delete(r.conns, playerID)
	r.log.Info().Str("player", playerID).Int("players", r.game.Len()).Msg("玩家離開房間")

	if r.game.IsEmpty() {
		r.closed = true
		r.sched.cancelAll()
		if r.onEmpty != nil {
			r.onEmpty(r.id)
		}
		return
	}

	r.broadcastRoomState()
	r.broadcast(msgSkinsUpdate, SkinsPayload{Taken: r.game.TakenSkins()})
	if !r.game.Phase.Active() {
		return
	}
	if end := r.game.CheckWin(); end != nil {
		r.endGame(end)
		return
	}
	if r.game.Phase == game.PhaseRunning {
		r.broadcastWorld()
	}
}

func (r *Room) refreshSummary() {
	host := ""
	if p, ok := r.game.Players[r.game.HostID]; ok {
		host = p.Name
	}
	r.summary.Store(&RoomSummary{
		RoomID:   r.id,
		Status:   r.game.Phase,
		Players:  r.game.Len(),
		Capacity: r.game.Rules().MaxPlayers,
		Host:     host,
	})
}

func (r *Room) sendTo(playerID, msgType string, payload interface{}) {
	if c, ok := r.conns[playerID]; ok {
		c.Send(ServerMessage{Type: msgType, Payload: payload})
	}
}

func (r *Room) broadcast(msgType string, payload interface{}) {
	msg := ServerMessage{Type: msgType, Payload: payload}
	for _, p := range r.game.Members() {
		if c, ok := r.conns[p.ID]; ok {
			c.Send(msg)
		}
	}
}

func (r *Room) broadcastRoomState() {
	r.broadcast(msgRoomState, r.game.BuildRoomSnapshot())
}

func (r *Room) broadcastWorld() {
	r.broadcast(msgPlayersUpdate, PlayersPayload{
		Players:  r.game.BuildWorldSnapshot(),
		Sabotage: r.game.Sabotage,
	})
}

// recordMatch 在背景寫入對局紀錄，不阻塞事件迴圈
func (r *Room) recordMatch(end *game.Ending) {
	if r.recorder == nil {
		return
	}
	rec := store.MatchRecord{
		RoomID:    r.id,
		Winner:    string(end.Winner),
		StartedAt: r.game.StartedAt,
		EndedAt:   r.clock.Now(),
	}
	for _, p := range r.game.Members() {
		rec.Players = append(rec.Players, store.MatchPlayer{
			AccountID: p.AccountID,
			Name:      p.Name,
			Team:      string(p.Team),
			Role:      string(p.Role),
			Alive:     p.Alive,
		})
	}
	recorder, log := r.recorder, r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		id, err := recorder.RecordMatch(ctx, rec)
		if err != nil {
			log.Error().Err(err).Msg("寫入對局紀錄失敗")
			return
		}
		log.Debug().Str("match", id).Msg("對局紀錄已寫入")
	}()
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
