package game

import (
	"fmt"
	"time"
)

// Game 表示單一房間的完整規則狀態；呼叫端需保證同一時間只有一個事件在修改它
type Game struct {
	ID        string
	HostID    string
	Phase     Phase
	MapID     string
	StartedAt time.Time
	Players   map[string]*Player
	Sabotage  *Sabotage
	Journal   *Journal
	Bodies    []*Body

	order           []string
	skins           map[Skin]string
	votes           map[string]string
	lastProximityAt time.Time
	rules           Rules
	rng             Random
}

// NewGame 建立一個位於大廳階段的空房間
func NewGame(id string, rules Rules, rng Random) *Game {
	if rng == nil {
		rng = NewRandom(0)
	}
	return &Game{
		ID:      id,
		Phase:   PhaseLobby,
		MapID:   MapGarage,
		Players: make(map[string]*Player),
		Journal: newJournal(rules.JournalSize),
		skins:   make(map[Skin]string),
		votes:   make(map[string]string),
		rules:   rules,
		rng:     rng,
	}
}

// Rules 回傳本房間使用的參數
func (g *Game) Rules() Rules {
	return g.rules
}

// Members 依加入順序回傳所有玩家
func (g *Game) Members() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.Players[id])
	}
	return out
}

// Len 回傳玩家數
func (g *Game) Len() int {
	return len(g.order)
}

// IsEmpty 判斷房間是否已無玩家
func (g *Game) IsEmpty() bool {
	return len(g.order) == 0
}

// AddPlayer 加入一名玩家；首位玩家成為房主
func (g *Game) AddPlayer(id, name string, accountID int64) (*Player, error) {
	if g.Phase != PhaseLobby {
		return nil, ErrGameStarted
	}
	if len(g.order) >= g.rules.MaxPlayers {
		return nil, ErrRoomFull
	}
	if _, exists := g.Players[id]; exists {
		return nil, fmt.Errorf("玩家 %s 已在房間內", id)
	}
	p := newPlayer(id, name, accountID)
	g.Players[id] = p
	g.order = append(g.order, id)
	if g.HostID == "" {
		g.HostID = id
	}
	return p, nil
}

// RemovePlayer 移除玩家、釋放外觀並在需要時移交房主
func (g *Game) RemovePlayer(id string) bool {
	p, ok := g.Players[id]
	if !ok {
		return false
	}
	if p.Skin != "" {
		delete(g.skins, p.Skin)
	}
	delete(g.Players, id)
	delete(g.votes, id)
	for i, pid := range g.order {
		if pid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if g.HostID == id {
		g.HostID = ""
		if len(g.order) > 0 {
			g.HostID = g.order[0]
		}
	}
	return true
}

// SelectSkin 在大廳中選擇外觀，已被他人選走或不在色盤中的外觀會被拒絕
func (g *Game) SelectSkin(id string, skin Skin) error {
	p, ok := g.Players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseLobby {
		return reject(RejectPhase, "只能在大廳選擇外觀")
	}
	if !ValidSkin(skin) {
		return reject(RejectInput, "無效的外觀")
	}
	if owner, taken := g.skins[skin]; taken && owner != id {
		return reject(RejectBusy, "外觀已被選走")
	}
	if p.Skin != "" {
		delete(g.skins, p.Skin)
	}
	p.Skin = skin
	g.skins[skin] = id
	return nil
}

// TakenSkins 依色盤順序回傳已被選走的外觀
func (g *Game) TakenSkins() []Skin {
	out := make([]Skin, 0, len(g.skins))
	for _, s := range Skins {
		if _, ok := g.skins[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// SetReady 在大廳中切換準備狀態
func (g *Game) SetReady(id string, ready bool) error {
	p, ok := g.Players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseLobby {
		return reject(RejectPhase, "只能在大廳切換準備狀態")
	}
	p.Ready = ready
	return nil
}

// Start 由房主開局：分配職業、重置玩家並發放任務
func (g *Game) Start(actorID string, now time.Time) error {
	if _, ok := g.Players[actorID]; !ok {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseLobby {
		return reject(RejectPhase, "遊戲已在進行或結束")
	}
	if actorID != g.HostID {
		return reject(RejectHost, "僅房主可開始遊戲")
	}
	if len(g.order) < g.rules.MinPlayers {
		return reject(RejectNotReady, fmt.Sprintf("至少需要 %d 名玩家", g.rules.MinPlayers))
	}
	if len(g.order) > g.rules.MaxPlayers {
		return reject(RejectNotReady, fmt.Sprintf("最多只能 %d 名玩家", g.rules.MaxPlayers))
	}
	members := g.Members()
	for _, p := range members {
		if p.Skin == "" {
			return reject(RejectNotReady, "所有玩家都必須選擇外觀")
		}
	}
	if g.rules.RequireReady {
		for _, p := range members {
			if !p.Ready {
				return reject(RejectNotReady, "所有玩家都必須準備")
			}
		}
	}

	g.Phase = PhaseRunning
	g.StartedAt = now
	g.Bodies = nil
	g.Sabotage = nil
	g.votes = make(map[string]string)
	g.Journal.clear()
	g.lastProximityAt = time.Time{}

	for _, p := range members {
		p.resetForGame()
	}
	AssignRoles(members, g.rng)
	for _, p := range members {
		p.Pos = Vec{X: 120 + g.rng.Float64()*260, Y: 120 + g.rng.Float64()*260}
		p.restPos = p.Pos
		p.lastMoveAt = now
		p.lastSeenAt = now
		p.Tasks = NewTaskSet(g.rng, now)
	}
	return nil
}

// Reset 由房主將房間帶回大廳，清除本局所有狀態
func (g *Game) Reset(actorID string) error {
	if _, ok := g.Players[actorID]; !ok {
		return ErrPlayerNotFound
	}
	if actorID != g.HostID {
		return reject(RejectHost, "僅房主可重置房間")
	}
	g.Phase = PhaseLobby
	g.StartedAt = time.Time{}
	g.Bodies = nil
	g.Sabotage = nil
	g.votes = make(map[string]string)
	g.Journal.clear()
	for _, p := range g.Members() {
		p.resetForGame()
		p.Ready = false
	}
	return nil
}

// Immune 判斷玩家是否處於拖吊員的免疫期
func (g *Game) Immune(p *Player, now time.Time) bool {
	return p.Role == RoleDepanneur && now.Sub(g.StartedAt) < g.rules.ImmunityWindow
}

// RevealEntry 是終局公開的玩家身分
type RevealEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Team  Team   `json:"team"`
	Alive bool   `json:"alive"`
}

// Ending 描述一場已結束的對局
type Ending struct {
	Winner Team          `json:"winner"`
	Reveal []RevealEntry `json:"reveal"`
}

// CountLiving 統計兩陣營存活人數
func (g *Game) CountLiving() (gentils int, saboteurs int) {
	for _, p := range g.Players {
		if !p.Alive {
			continue
		}
		switch p.Team {
		case TeamGentils:
			gentils++
		case TeamSaboteurs:
			saboteurs++
		}
	}
	return
}

// CheckWin 判定勝負；有結果時房間進入終局並回傳結算資訊
func (g *Game) CheckWin() *Ending {
	if !g.Phase.Active() {
		return nil
	}
	gentils, saboteurs := g.CountLiving()
	var winner Team
	switch {
	case saboteurs == 0:
		winner = TeamGentils
	case saboteurs >= gentils:
		winner = TeamSaboteurs
	default:
		return nil
	}
	g.Phase = PhaseEnd
	g.Sabotage = nil
	return &Ending{Winner: winner, Reveal: g.Reveal()}
}

// Reveal 公開所有玩家身分
func (g *Game) Reveal() []RevealEntry {
	out := make([]RevealEntry, 0, len(g.order))
	for _, p := range g.Members() {
		out = append(out, RevealEntry{ID: p.ID, Name: p.Name, Role: p.Role, Team: p.Team, Alive: p.Alive})
	}
	return out
}
