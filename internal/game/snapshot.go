package game

// MemberSnapshot 是房間狀態中公開的玩家資訊
type MemberSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skin  Skin   `json:"skin,omitempty"`
	Ready bool   `json:"ready"`
	Alive bool   `json:"alive"`
	MapID string `json:"mapId"`
}

// RoomSnapshot 是廣播給房間所有人的成員與階段資訊
type RoomSnapshot struct {
	ID         string           `json:"id"`
	HostID     string           `json:"hostId"`
	State      Phase            `json:"state"`
	Players    []MemberSnapshot `json:"players"`
	SkinsTaken []Skin           `json:"skinsTaken"`
	Started    bool             `json:"started"`
}

// PlayerPosition 是模擬週期廣播的世界狀態
type PlayerPosition struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Alive bool    `json:"alive"`
	MapID string  `json:"mapId"`
	Skin  Skin    `json:"skin,omitempty"`
}

// BuildRoomSnapshot 建立房間公開狀態
func (g *Game) BuildRoomSnapshot() RoomSnapshot {
	players := make([]MemberSnapshot, 0, len(g.order))
	for _, p := range g.Members() {
		players = append(players, MemberSnapshot{
			ID:    p.ID,
			Name:  p.Name,
			Skin:  p.Skin,
			Ready: p.Ready,
			Alive: p.Alive,
			MapID: p.MapID,
		})
	}
	return RoomSnapshot{
		ID:         g.ID,
		HostID:     g.HostID,
		State:      g.Phase,
		Players:    players,
		SkinsTaken: g.TakenSkins(),
		Started:    g.Phase != PhaseLobby,
	}
}

// BuildWorldSnapshot 建立所有玩家的位置資訊
func (g *Game) BuildWorldSnapshot() []PlayerPosition {
	out := make([]PlayerPosition, 0, len(g.order))
	for _, p := range g.Members() {
		out = append(out, PlayerPosition{
			ID:    p.ID,
			Name:  p.Name,
			X:     p.Pos.X,
			Y:     p.Pos.Y,
			Alive: p.Alive,
			MapID: p.MapID,
			Skin:  p.Skin,
		})
	}
	return out
}
