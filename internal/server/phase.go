package server

import (
	"time"

	"bennystab/internal/game"
)

// 階段轉換與對應的計時器

func durationMs(d time.Duration) int64 {
	return d.Milliseconds()
}

func (r *Room) startGame(actorID string) {
	if err := r.game.Start(actorID, r.clock.Now()); err != nil {
		r.fail(actorID, err)
		return
	}
	r.sched.cancelAll()

	var saboteurs []string
	for _, p := range r.game.Members() {
		if p.IsSaboteur() {
			saboteurs = append(saboteurs, p.ID)
		}
	}
	r.broadcastRoomState()
	for _, p := range r.game.Members() {
		start := GameStartPayload{Role: p.Role, Team: p.Team, MapID: p.MapID}
		if p.IsSaboteur() {
			start.Allies = saboteurs
		}
		r.sendTo(p.ID, msgGameStart, start)
		r.sendTo(p.ID, msgGameTasks, TasksPayload{Tasks: p.Tasks})
	}
	r.broadcastWorld()
	r.sched.arm(timerTick, r.game.Rules().TickInterval)
	r.log.Info().Int("players", r.game.Len()).Int("saboteurs", len(saboteurs)).Msg("遊戲開始")
}

func (r *Room) resetRoom(actorID string) {
	if err := r.game.Reset(actorID); err != nil {
		r.fail(actorID, err)
		return
	}
	r.sched.cancelAll()
	r.broadcastRoomState()
	r.broadcast(msgSkinsUpdate, SkinsPayload{Taken: r.game.TakenSkins()})
	r.log.Info().Str("by", actorID).Msg("房間已重置")
}

func (r *Room) handleTimer(key timerKey) {
	switch key {
	case timerTick:
		r.onTick()
	case timerDiscussion:
		r.openVoting()
	case timerVoting:
		r.resolveVotes()
	case timerSabotage:
		if r.game.ExpireSabotage() {
			r.broadcast(msgGameEvent, GameEvent{Type: eventSabotageEnd, Reason: reasonTimeout})
		}
	}
}

// onTick 只在進行階段廣播世界狀態並掃描玩家距離
func (r *Room) onTick() {
	if r.game.Phase != game.PhaseRunning {
		return
	}
	r.game.ScanProximity(r.clock.Now())
	r.broadcastWorld()
	r.sched.arm(timerTick, r.game.Rules().TickInterval)
}

func (r *Room) openMeeting(m *game.Meeting) {
	r.sched.cancel(timerTick)
	d := r.game.Rules().DiscussionDuration
	r.broadcastRoomState()
	r.broadcast(msgDiscussionStart, DiscussionPayload{Reason: *m, DurationMs: durationMs(d)})
	r.sched.arm(timerDiscussion, d)
	r.log.Info().Str("type", string(m.Type)).Str("caller", m.CallerID).Msg("會議開始")
}

func (r *Room) openVoting() {
	if !r.game.BeginVoting() {
		return
	}
	d := r.game.Rules().VotingDuration
	r.broadcastRoomState()
	r.broadcast(msgVoteStart, VoteStartPayload{DurationMs: durationMs(d)})
	r.sched.arm(timerVoting, d)
}

func (r *Room) resolveVotes() {
	res, ok := r.game.ResolveVotes(r.clock.Now())
	if !ok {
		return
	}
	r.broadcast(msgVoteResult, res)
	r.log.Info().
		Str("eliminated", res.EliminatedID).
		Bool("tie", res.Tie).
		Bool("skip", res.Skip).
		Bool("immune", res.Immune).
		Msg("投票結算")

	if res.Ending != nil {
		r.endGame(res.Ending)
		return
	}
	r.broadcastRoomState()
	r.broadcastWorld()
	r.sched.arm(timerTick, r.game.Rules().TickInterval)
}

// endGame 取消所有計時器並公布結果
func (r *Room) endGame(end *game.Ending) {
	r.sched.cancelAll()
	r.broadcast(msgGameEnd, end)
	r.broadcastRoomState()
	r.log.Info().Str("winner", string(end.Winner)).Msg("遊戲結束")
	r.recordMatch(end)
}
