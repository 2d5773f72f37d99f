package game

import (
	"fmt"
	"math"
	"time"
)

const (
	// 移動距離超過此值才視為「有移動」，會重置靜止計時
	moveEpsilon = 2.0
	// 速度上限之外容許的位移誤差，吸收網路抖動
	moveSlack = 40.0

	proximityInterval = 2 * time.Second
	proximityRange    = 120.0
)

// MeetingType 表示會議的觸發原因
type MeetingType string

const (
	MeetingBodyFound MeetingType = "bodyFound"
	MeetingEmergency MeetingType = "emergency"
)

// Meeting 描述一次進入討論階段的原因
type Meeting struct {
	Type     MeetingType `json:"type"`
	CallerID string      `json:"callerId"`
	VictimID string      `json:"victimId,omitempty"`
}

// KillOutcome 是一次成功擊殺的結果
type KillOutcome struct {
	Victim *Player
	Body   *Body
	Ending *Ending
}

func (g *Game) actor(id string) (*Player, error) {
	p, ok := g.Players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// runningActor 檢查對局進行中且行動者存活
func (g *Game) runningActor(id string) (*Player, error) {
	p, err := g.actor(id)
	if err != nil {
		return nil, err
	}
	if g.Phase != PhaseRunning {
		return nil, reject(RejectPhase, "目前階段無法行動")
	}
	if !p.Alive {
		return nil, reject(RejectDead, "你已經出局了")
	}
	return p, nil
}

// Move 更新玩家位置；座標限制在地圖範圍內，且單次位移受速度上限約束
func (g *Game) Move(actorID string, target Vec, now time.Time) error {
	p, err := g.runningActor(actorID)
	if err != nil {
		return err
	}
	if math.IsNaN(target.X) || math.IsNaN(target.Y) || math.IsInf(target.X, 0) || math.IsInf(target.Y, 0) {
		return reject(RejectInput, "無效的座標")
	}

	next := clampToCanvas(target)
	if g.rules.MoveSpeed > 0 {
		elapsed := now.Sub(p.lastSeenAt).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		maxStep := g.rules.MoveSpeed*elapsed + moveSlack
		if d := p.Pos.Dist(next); d > maxStep {
			ratio := maxStep / d
			next = Vec{X: p.Pos.X + (next.X-p.Pos.X)*ratio, Y: p.Pos.Y + (next.Y-p.Pos.Y)*ratio}
		}
	}

	p.lastSeenAt = now
	if next.Dist(p.restPos) > moveEpsilon {
		p.lastMoveAt = now
		p.restPos = next
	}
	p.Pos = next
	return nil
}

// Kill 由破壞者擊殺範圍內的好人
func (g *Game) Kill(actorID, targetID string, now time.Time) (*KillOutcome, error) {
	killer, err := g.runningActor(actorID)
	if err != nil {
		return nil, err
	}
	if !killer.IsSaboteur() {
		return nil, reject(RejectRole, "你無法擊殺")
	}
	target, ok := g.Players[targetID]
	if !ok || !target.Alive || target.IsSaboteur() {
		return nil, reject(RejectTarget, "目標無效")
	}
	if !killer.cooldownReady(AbilityKill, g.rules.KillCooldown, now) {
		return nil, reject(RejectCooldown, "擊殺冷卻中")
	}
	if target.MapID != killer.MapID || killer.Pos.Dist(target.Pos) > g.rules.KillRange {
		return nil, reject(RejectRange, "距離太遠，無法擊殺")
	}
	if g.Immune(target, now) {
		return nil, reject(RejectImmune, "目標目前受到保護")
	}

	killer.markUsed(AbilityKill, now)
	target.Alive = false
	body := &Body{VictimID: target.ID, Pos: target.Pos, MapID: target.MapID}
	g.Bodies = append(g.Bodies, body)
	g.Journal.Add(now, fmt.Sprintf("%s 與 %s 有過接觸", killer.Name, target.Name))

	return &KillOutcome{Victim: target, Body: body, Ending: g.CheckWin()}, nil
}

// Report 回報範圍內尚未被回報的屍體並召開會議
func (g *Game) Report(actorID string, now time.Time) (*Meeting, error) {
	reporter, err := g.runningActor(actorID)
	if err != nil {
		return nil, err
	}
	var found *Body
	for _, b := range g.Bodies {
		if b.Reported || b.MapID != reporter.MapID {
			continue
		}
		if reporter.Pos.Dist(b.Pos) <= g.rules.ReportRange {
			found = b
			break
		}
	}
	if found == nil {
		return nil, reject(RejectRange, "附近沒有可回報的屍體")
	}

	found.Reported = true
	g.Journal.Add(now, fmt.Sprintf("%s 回報了一具屍體", reporter.Name))
	g.Phase = PhaseDiscussion
	return &Meeting{Type: MeetingBodyFound, CallerID: reporter.ID, VictimID: found.VictimID}, nil
}

// EmergencyCall 由存活玩家召開緊急會議
func (g *Game) EmergencyCall(actorID string) (*Meeting, error) {
	caller, err := g.runningActor(actorID)
	if err != nil {
		return nil, err
	}
	g.Phase = PhaseDiscussion
	return &Meeting{Type: MeetingEmergency, CallerID: caller.ID}, nil
}

// BeginVoting 由討論階段進入投票階段，並清空上一輪的票
func (g *Game) BeginVoting() bool {
	if g.Phase != PhaseDiscussion {
		return false
	}
	g.Phase = PhaseVoting
	g.votes = make(map[string]string)
	return true
}

// StartSabotage 由破壞者發動破壞；同一時間只能有一個破壞生效
func (g *Game) StartSabotage(actorID string, kind SabotageKind, now time.Time) (*Sabotage, error) {
	actor, err := g.runningActor(actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSaboteur() {
		return nil, reject(RejectRole, "你無法發動破壞")
	}
	if kind == "" {
		kind = SabotageLights
	}
	if !actor.cooldownReady(AbilitySabotage, g.rules.SabotageCooldown, now) {
		return nil, reject(RejectCooldown, "破壞冷卻中")
	}
	if g.Sabotage != nil {
		return nil, reject(RejectBusy, "已有破壞正在生效")
	}

	actor.markUsed(AbilitySabotage, now)
	g.Sabotage = &Sabotage{Kind: kind, StartedAt: now, Active: true}
	g.Journal.Add(now, fmt.Sprintf("%s 在某個區域動過手腳", actor.Name))
	return g.Sabotage, nil
}

// ExpireSabotage 讓逾時的破壞失效
func (g *Game) ExpireSabotage() bool {
	if g.Sabotage == nil {
		return false
	}
	g.Sabotage = nil
	return true
}

// Repair 由機械師在修復點附近解除破壞
func (g *Game) Repair(actorID string, now time.Time) error {
	actor, err := g.runningActor(actorID)
	if err != nil {
		return err
	}
	if actor.Role != RoleMecano || g.Sabotage == nil {
		return reject(RejectRole, "目前無法修復")
	}
	if actor.Pos.Dist(RepairPoint) > g.rules.RepairRange {
		return reject(RejectRange, "距離修復點太遠")
	}
	g.Sabotage = nil
	g.Journal.Add(now, fmt.Sprintf("%s 修復了破壞", actor.Name))
	return nil
}

// ScanProximity 定期記錄同一地圖上彼此靠近的存活玩家，回傳新增的紀錄數
func (g *Game) ScanProximity(now time.Time) int {
	if g.Phase != PhaseRunning {
		return 0
	}
	if !g.lastProximityAt.IsZero() && now.Sub(g.lastProximityAt) < proximityInterval {
		return 0
	}
	g.lastProximityAt = now

	alive := make([]*Player, 0, len(g.order))
	for _, p := range g.Members() {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	logged := 0
	for i := 0; i < len(alive); i++ {
		for j := i + 1; j < len(alive); j++ {
			a, b := alive[i], alive[j]
			if a.MapID != b.MapID || a.Pos.Dist(b.Pos) >= proximityRange {
				continue
			}
			g.Journal.Add(now, fmt.Sprintf("%s 曾靠近 %s", a.Name, b.Name))
			logged++
		}
	}
	return logged
}
