package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

// newLobby 建立 n 名玩家皆已選外觀並準備好的大廳
func newLobby(t *testing.T, n int) *Game {
	t.Helper()
	g := NewGame("ROOM01", DefaultRules(), NewRandom(7))
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%d", i+1)
		_, err := g.AddPlayer(id, fmt.Sprintf("玩家%d", i+1), 0)
		require.NoError(t, err)
		require.NoError(t, g.SelectSkin(id, Skins[i]))
		require.NoError(t, g.SetReady(id, true))
	}
	return g
}

// startWithRoles 開局後把職業固定成指定值，避免測試依賴亂數
func startWithRoles(t *testing.T, roles ...Role) *Game {
	t.Helper()
	g := newLobby(t, len(roles))
	require.NoError(t, g.Start("p1", t0))
	for i, role := range roles {
		p := g.Players[fmt.Sprintf("p%d", i+1)]
		p.Role = role
		p.Team = TeamGentils
		if role == RoleSaboteur {
			p.Team = TeamSaboteurs
		}
		p.Pos = Vec{X: 100 + float64(i)*10, Y: 100}
		p.restPos = p.Pos
	}
	return g
}

func TestAddPlayerAssignsHostAndLimits(t *testing.T) {
	g := newLobby(t, 8)
	if g.HostID != "p1" {
		t.Fatalf("第一位玩家應成為房主，實際 %s", g.HostID)
	}
	if _, err := g.AddPlayer("p9", "多出來的", 0); err != ErrRoomFull {
		t.Fatalf("房間滿時應回傳 ErrRoomFull，實際 %v", err)
	}

	started := startWithRoles(t, RoleSaboteur, RoleChef, RoleMecano, RoleDepanneur)
	if _, err := started.AddPlayer("late", "遲到", 0); err != ErrGameStarted {
		t.Fatalf("開局後加入應回傳 ErrGameStarted，實際 %v", err)
	}
}

func TestSelectSkinRejectsTakenWithoutChange(t *testing.T) {
	g := NewGame("R", DefaultRules(), NewRandom(1))
	_, _ = g.AddPlayer("a", "A", 0)
	_, _ = g.AddPlayer("b", "B", 0)
	require.NoError(t, g.SelectSkin("a", "blue"))
	require.NoError(t, g.SelectSkin("b", "green"))

	err := g.SelectSkin("b", "blue")
	assert.Equal(t, RejectBusy, RejectionCode(err))
	assert.Equal(t, Skin("green"), g.Players["b"].Skin)
	assert.Equal(t, []Skin{"blue", "green"}, g.TakenSkins())

	assert.Equal(t, RejectInput, RejectionCode(g.SelectSkin("a", "chartreuse")))
	assert.Equal(t, Skin("blue"), g.Players["a"].Skin)

	// 換外觀會釋放舊的
	require.NoError(t, g.SelectSkin("a", "pink"))
	assert.Equal(t, []Skin{"green", "pink"}, g.TakenSkins())
}

func TestStartPreconditions(t *testing.T) {
	g := newLobby(t, 3)
	assert.Equal(t, RejectNotReady, RejectionCode(g.Start("p1", t0)))

	g = newLobby(t, 4)
	assert.Equal(t, RejectHost, RejectionCode(g.Start("p2", t0)))

	require.NoError(t, g.SetReady("p3", false))
	assert.Equal(t, RejectNotReady, RejectionCode(g.Start("p1", t0)))
	require.NoError(t, g.SetReady("p3", true))

	_, _ = g.AddPlayer("p5", "沒選外觀", 0)
	_ = g.SetReady("p5", true)
	assert.Equal(t, RejectNotReady, RejectionCode(g.Start("p1", t0)))
	g.RemovePlayer("p5")

	assert.Equal(t, ErrPlayerNotFound, g.Start("ghost", t0))
	require.NoError(t, g.Start("p1", t0))
	assert.Equal(t, PhaseRunning, g.Phase)
	for _, p := range g.Members() {
		assert.True(t, p.HasRole(), "玩家 %s 應已分配職業", p.ID)
		assert.Len(t, p.Tasks, 6)
		assert.True(t, p.Pos.X >= 120 && p.Pos.X <= 380)
	}
	assert.Equal(t, RejectPhase, RejectionCode(g.Start("p1", t0)))
}

func TestStartWithoutReadyRequirement(t *testing.T) {
	rules := DefaultRules()
	rules.RequireReady = false
	g := NewGame("R", rules, NewRandom(3))
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("p%d", i+1)
		_, _ = g.AddPlayer(id, id, 0)
		require.NoError(t, g.SelectSkin(id, Skins[i]))
	}
	require.NoError(t, g.Start("p1", t0))
}

func TestRemovePlayerHandsOffHost(t *testing.T) {
	g := newLobby(t, 4)
	g.RemovePlayer("p1")
	if g.HostID != "p2" {
		t.Fatalf("房主離開後應交給下一位玩家，實際 %s", g.HostID)
	}
	for _, s := range g.TakenSkins() {
		if s == Skins[0] {
			t.Fatalf("離開的玩家外觀應被釋放")
		}
	}
	for _, id := range []string{"p2", "p3", "p4"} {
		g.RemovePlayer(id)
	}
	if !g.IsEmpty() || g.HostID != "" {
		t.Fatalf("房間清空後房主應為空，實際 %q", g.HostID)
	}
	if g.RemovePlayer("p2") {
		t.Fatalf("重複移除應回傳 false")
	}
}

func TestResetReturnsToLobby(t *testing.T) {
	g := startWithRoles(t, RoleSaboteur, RoleChef, RoleMecano, RoleDepanneur)
	_, err := g.Kill("p1", "p2", t0.Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, RejectHost, RejectionCode(g.Reset("p3")))
	require.NoError(t, g.Reset("p1"))

	assert.Equal(t, PhaseLobby, g.Phase)
	assert.Empty(t, g.Bodies)
	assert.Zero(t, g.Journal.Len())
	for _, p := range g.Members() {
		assert.True(t, p.Alive)
		assert.False(t, p.Ready)
		assert.False(t, p.HasRole())
		assert.Nil(t, p.Tasks)
		assert.NotEmpty(t, p.Skin, "重置後保留外觀")
	}
}

func TestCheckWin(t *testing.T) {
	g := startWithRoles(t, RoleSaboteur, RoleChef, RoleMecano, RoleDepanneur)
	if end := g.CheckWin(); end != nil {
		t.Fatalf("1 對 3 不應結束，實際 %+v", end)
	}

	g.Players["p2"].Alive = false
	g.Players["p3"].Alive = false
	end := g.CheckWin()
	require.NotNil(t, end)
	assert.Equal(t, TeamSaboteurs, end.Winner)
	assert.Equal(t, PhaseEnd, g.Phase)
	assert.Len(t, end.Reveal, 4)
	assert.Nil(t, g.CheckWin(), "終局後不再判定")
}

func TestDisconnectCanEndGame(t *testing.T) {
	g := startWithRoles(t, RoleSaboteur, RoleChef, RoleMecano, RoleDepanneur)
	g.RemovePlayer("p1")
	end := g.CheckWin()
	require.NotNil(t, end)
	assert.Equal(t, TeamGentils, end.Winner)
	assert.Equal(t, "p2", g.HostID)
}
