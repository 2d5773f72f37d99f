package game

import (
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Phase 表示房間目前所處的階段
type Phase string

const (
	PhaseLobby      Phase = "LOBBY"
	PhaseRunning    Phase = "RUNNING"
	PhaseDiscussion Phase = "DISCUSSION"
	PhaseVoting     Phase = "VOTING"
	PhaseResolve    Phase = "RESOLVE"
	PhaseEnd        Phase = "END"
)

// Active 表示對局正在進行（可觸發勝負判定）
func (p Phase) Active() bool {
	switch p {
	case PhaseRunning, PhaseDiscussion, PhaseVoting, PhaseResolve:
		return true
	default:
		return false
	}
}

// Team 表示玩家陣營
type Team string

const (
	TeamNone      Team = ""
	TeamGentils   Team = "gentils"
	TeamSaboteurs Team = "saboteurs"
)

// Role 表示玩家職業
type Role string

const (
	RoleNone      Role = ""
	RoleChef      Role = "chef"
	RoleMecano    Role = "mecano"
	RoleComptable Role = "comptable"
	RoleDepanneur Role = "depanneur"
	RoleVanilla   Role = "vanilla"
	RoleSaboteur  Role = "saboteur"
)

// Skin 表示玩家外觀顏色
type Skin string

// Skins 是固定的外觀色盤
var Skins = []Skin{"orange", "blue", "green", "purple", "yellow", "pink", "teal", "brown"}

// ValidSkin 檢查外觀是否屬於色盤
func ValidSkin(s Skin) bool {
	for _, skin := range Skins {
		if skin == s {
			return true
		}
	}
	return false
}

// SkipVote 是投票時代表棄票的目標
const SkipVote = "skip"

// Vec 表示地圖上的座標
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist 回傳兩點的歐氏距離
func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Ability 用於區分各技能的冷卻時間
type Ability string

const (
	AbilityKill        Ability = "kill"
	AbilitySabotage    Ability = "sabotage"
	AbilityInvestigate Ability = "investigate"
)

// Player 表示房間中的一名玩家
type Player struct {
	ID        string
	Name      string
	AccountID int64
	Skin      Skin
	Ready     bool
	Alive     bool
	Team      Team
	Role      Role
	MapID     string
	Pos       Vec
	Tasks     []*Task

	lastMoveAt time.Time
	lastSeenAt time.Time
	restPos    Vec
	cooldowns  map[Ability]time.Time
	usedReveal bool
	usedHint   bool
	chat       *rate.Limiter
}

func newPlayer(id, name string, accountID int64) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		AccountID: accountID,
		Alive:     true,
		MapID:     MapGarage,
		Pos:       lobbySpawn,
		cooldowns: make(map[Ability]time.Time),
	}
}

// HasRole 表示玩家已分配陣營與職業
func (p *Player) HasRole() bool {
	return p.Team != TeamNone && p.Role != RoleNone
}

// IsSaboteur 判斷玩家是否為破壞者陣營
func (p *Player) IsSaboteur() bool {
	return p.Team == TeamSaboteurs
}

// Task 依編號取得玩家的任務
func (p *Player) Task(id string) *Task {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// IdleFor 回傳玩家自上次移動以來靜止的時間
func (p *Player) IdleFor(now time.Time) time.Duration {
	if p.lastMoveAt.IsZero() {
		return 0
	}
	return now.Sub(p.lastMoveAt)
}

func (p *Player) cooldownReady(a Ability, cd time.Duration, now time.Time) bool {
	last, ok := p.cooldowns[a]
	if !ok || last.IsZero() {
		return true
	}
	return now.Sub(last) >= cd
}

func (p *Player) markUsed(a Ability, now time.Time) {
	p.cooldowns[a] = now
}

// resetForGame 清除上一局的暫存狀態
func (p *Player) resetForGame() {
	p.Alive = true
	p.Team = TeamNone
	p.Role = RoleNone
	p.MapID = MapGarage
	p.Pos = lobbySpawn
	p.Tasks = nil
	p.lastMoveAt = time.Time{}
	p.lastSeenAt = time.Time{}
	p.restPos = lobbySpawn
	p.cooldowns = make(map[Ability]time.Time)
	p.usedReveal = false
	p.usedHint = false
	p.chat = nil
}

// Body 表示一具尚待回報的屍體
type Body struct {
	VictimID string `json:"id"`
	Pos      Vec    `json:"pos"`
	MapID    string `json:"mapId"`
	Reported bool   `json:"reported"`
}

// SabotageKind 表示破壞類型
type SabotageKind string

const (
	SabotageLights SabotageKind = "lights"
)

// Sabotage 表示房間中正在生效的破壞
type Sabotage struct {
	Kind      SabotageKind `json:"type"`
	StartedAt time.Time    `json:"startedAt"`
	Active    bool         `json:"active"`
}

// LimitsVision 表示此破壞會讓客戶端限制視野
func (s *Sabotage) LimitsVision() bool {
	return s != nil && s.Active && s.Kind == SabotageLights
}
