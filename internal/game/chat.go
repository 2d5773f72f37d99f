package game

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// ChatChannel 表示聊天訊息的傳遞範圍
type ChatChannel string

const (
	// ChannelProximity 只送給同地圖、聊天距離內的存活玩家
	ChannelProximity ChatChannel = "proximity"
	// ChannelGlobal 在會議期間送給所有存活玩家
	ChannelGlobal ChatChannel = "global"
)

// ChatMessage 是送出的聊天訊息
type ChatMessage struct {
	FromID   string      `json:"fromId"`
	FromName string      `json:"fromName"`
	Text     string      `json:"text"`
	Channel  ChatChannel `json:"channel"`
	At       int64       `json:"ts"`
}

// Chat 驗證並路由一則聊天訊息，回傳訊息與收件者（含發送者本人）
func (g *Game) Chat(actorID, text string, now time.Time) (*ChatMessage, []string, error) {
	actor, err := g.actor(actorID)
	if err != nil {
		return nil, nil, err
	}
	var channel ChatChannel
	switch g.Phase {
	case PhaseRunning:
		channel = ChannelProximity
	case PhaseDiscussion, PhaseVoting:
		channel = ChannelGlobal
	default:
		return nil, nil, reject(RejectPhase, "現在無法聊天")
	}
	if !actor.Alive {
		return nil, nil, reject(RejectDead, "出局的玩家無法聊天")
	}
	text = truncateRunes(strings.TrimSpace(text), g.rules.ChatMaxLen)
	if text == "" {
		return nil, nil, reject(RejectInput, "訊息不能是空白")
	}
	if actor.chat == nil {
		actor.chat = rate.NewLimiter(rate.Every(g.rules.ChatCooldown), 1)
	}
	if !actor.chat.AllowN(now, 1) {
		return nil, nil, reject(RejectCooldown, "發言太快了")
	}

	var recipients []string
	for _, p := range g.Members() {
		if !p.Alive {
			continue
		}
		if channel == ChannelProximity && (p.MapID != actor.MapID || p.Pos.Dist(actor.Pos) > g.rules.ChatRange) {
			continue
		}
		recipients = append(recipients, p.ID)
	}
	msg := &ChatMessage{
		FromID:   actor.ID,
		FromName: actor.Name,
		Text:     text,
		Channel:  channel,
		At:       now.UnixMilli(),
	}
	return msg, recipients, nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
