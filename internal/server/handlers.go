package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bennystab/internal/game"
)

func (r *Room) handleIntent(playerID string, msg ClientMessage) {
	if _, ok := r.game.Players[playerID]; !ok {
		return
	}
	switch msg.Type {
	case msgSkinSelect:
		var payload SkinSelectPayload
		if !r.decode(playerID, msg, &payload) {
			return
		}
		if err := r.game.SelectSkin(playerID, payload.Skin); err != nil {
			r.fail(playerID, err)
			return
		}
		r.broadcast(msgSkinsUpdate, SkinsPayload{Taken: r.game.TakenSkins()})
		r.broadcastRoomState()
	case msgReady:
		var payload ReadyPayload
		if !r.decode(playerID, msg, &payload) {
			return
		}
		if err := r.game.SetReady(playerID, payload.Ready); err != nil {
			r.fail(playerID, err)
			return
		}
		r.broadcastRoomState()
	case msgStart:
		r.startGame(playerID)
	case msgRoomReset:
		r.resetRoom(playerID)
	case msgMove:
		var payload MovePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.X == nil || payload.Y == nil {
			return
		}
		// 移動頻率高，失敗時不回報
		_ = r.game.Move(playerID, game.Vec{X: *payload.X, Y: *payload.Y}, r.clock.Now())
	case msgInteract:
		var payload InteractPayload
		if !r.decode(playerID, msg, &payload) {
			return
		}
		r.handleInteract(playerID, payload)
	case msgKill:
		var payload TargetPayload
		if !r.decode(playerID, msg, &payload) {
			return
		}
		r.handleKill(playerID, payload.TargetID)
	case msgSabotage:
		var payload SabotagePayload
		if !r.decode(playerID, msg, &payload) {
			return
		}
		r.handleSabotage(playerID, payload.Type)
	case msgVoteCast:
		var payload TargetPayload
		if !r.decode(playerID, msg, &payload) {
			return
		}
		if err := r.game.CastVote(playerID, payload.TargetID); err != nil {
			r.fail(playerID, err)
		}
	case msgChatSend:
		var payload ChatPayload
		if !r.decode(playerID, msg, &payload) {
			return
		}
		r.handleChat(playerID, payload.Text)
	default:
		r.sendTo(playerID, msgRoomError, ErrorPayload{Message: "未知指令"})
	}
}

func (r *Room) decode(playerID string, msg ClientMessage, v interface{}) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		r.sendTo(playerID, msgRoomError, ErrorPayload{Message: "訊息格式錯誤"})
		return false
	}
	return true
}

// fail 依錯誤種類回報：驗證失敗私下回饋，結構性錯誤回報房間錯誤，找不到玩家則直接丟棄
func (r *Room) fail(playerID string, err error) {
	var rej *game.Rejection
	switch {
	case errors.As(err, &rej):
		r.sendTo(playerID, msgFeedback, FeedbackPayload{Code: rej.Code, Message: rej.Message})
	case errors.Is(err, game.ErrPlayerNotFound):
		r.log.Debug().Str("player", playerID).Msg("drop event for unknown player")
	default:
		r.sendTo(playerID, msgRoomError, ErrorPayload{Message: err.Error()})
	}
}

func (r *Room) handleKill(playerID, targetID string) {
	out, err := r.game.Kill(playerID, targetID, r.clock.Now())
	if err != nil {
		r.fail(playerID, err)
		return
	}
	r.log.Info().Str("victim", out.Victim.ID).Msg("玩家遭到擊殺")
	r.broadcast(msgGameEvent, GameEvent{Type: eventKill, VictimID: out.Victim.ID})
	if out.Ending != nil {
		r.endGame(out.Ending)
		return
	}
	r.broadcastWorld()
}

func (r *Room) handleSabotage(playerID string, kind game.SabotageKind) {
	sab, err := r.game.StartSabotage(playerID, kind, r.clock.Now())
	if err != nil {
		r.fail(playerID, err)
		return
	}
	d := r.game.Rules().SabotageDuration
	r.sched.arm(timerSabotage, d)
	r.broadcast(msgGameEvent, GameEvent{Type: eventSabotageStart, Sabotage: string(sab.Kind), DurationMs: durationMs(d)})
}

func (r *Room) handleInteract(playerID string, payload InteractPayload) {
	now := r.clock.Now()
	switch payload.Type {
	case interactReport:
		m, err := r.game.Report(playerID, now)
		if err != nil {
			r.fail(playerID, err)
			return
		}
		r.openMeeting(m)
	case interactEmergency:
		m, err := r.game.EmergencyCall(playerID)
		if err != nil {
			r.fail(playerID, err)
			return
		}
		r.openMeeting(m)
	case interactRepair:
		if err := r.game.Repair(playerID, now); err != nil {
			r.fail(playerID, err)
			return
		}
		r.sched.cancel(timerSabotage)
		r.broadcast(msgGameEvent, GameEvent{Type: eventSabotageEnd, Reason: reasonRepair})
	case interactInvestigate:
		res, err := r.game.Investigate(playerID, payload.TargetID, now)
		if err != nil {
			r.fail(playerID, err)
			return
		}
		r.sendTo(playerID, msgGameEvent, GameEvent{Type: eventInvestigation, TargetID: res.TargetID, Hint: res.Hint})
	case interactJournalPeek:
		entries, err := r.game.PeekJournal(playerID)
		if err != nil {
			r.fail(playerID, err)
			return
		}
		r.sendTo(playerID, msgGameEvent, GameEvent{Type: eventJournal, Entries: entries})
	case interactReveal:
		text, err := r.game.RevealJournal(playerID)
		if err != nil {
			r.fail(playerID, err)
			return
		}
		r.broadcast(msgGameEvent, GameEvent{Type: eventReveal, Text: text})
	case interactHint:
		hint, err := r.game.DepanneurHint(playerID)
		if err != nil {
			r.fail(playerID, err)
			return
		}
		r.sendTo(playerID, msgGameEvent, GameEvent{Type: eventHint, Hint: hint})
	case interactTask:
		r.handleTask(playerID, payload.TargetID, now)
	default:
		r.sendTo(playerID, msgFeedback, FeedbackPayload{Code: game.RejectInput, Message: "未知的互動"})
	}
}

func (r *Room) handleTask(playerID, taskID string, now time.Time) {
	out, err := r.game.InteractTask(playerID, taskID, now)
	if err != nil {
		r.fail(playerID, err)
		return
	}
	r.sendTo(playerID, msgTaskUpdate, TaskUpdatePayload{Task: out.Task})
	if out.Result.Missed {
		name := r.game.Players[playerID].Name
		r.broadcast(msgGameEvent, GameEvent{Type: eventTaskNoise, Message: fmt.Sprintf("%s 在升降機那邊弄出了聲響", name)})
		r.sendTo(playerID, msgFeedback, FeedbackPayload{Message: "時機不對，再試一次"})
	}
}

func (r *Room) handleChat(playerID, text string) {
	msg, recipients, err := r.game.Chat(playerID, text, r.clock.Now())
	if err != nil {
		r.fail(playerID, err)
		return
	}
	for _, id := range recipients {
		r.sendTo(id, msgChatRecv, msg)
	}
}
