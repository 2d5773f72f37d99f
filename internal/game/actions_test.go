package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourPlayerGame(t *testing.T) *Game {
	// p1 破壞者、p2 主管、p3 機械師、p4 拖吊員
	return startWithRoles(t, RoleSaboteur, RoleChef, RoleMecano, RoleDepanneur)
}

func TestKillRangeBoundary(t *testing.T) {
	g := fourPlayerGame(t)
	g.Players["p1"].Pos = Vec{X: 100, Y: 100}
	g.Players["p2"].Pos = Vec{X: 161, Y: 100}

	_, err := g.Kill("p1", "p2", t0.Add(time.Second))
	assert.Equal(t, RejectRange, RejectionCode(err))
	assert.True(t, g.Players["p2"].Alive)
	assert.Empty(t, g.Bodies)
	assert.Zero(t, g.Journal.Len())

	g.Players["p2"].Pos = Vec{X: 160, Y: 100}
	out, err := g.Kill("p1", "p2", t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, out.Victim.Alive)
	assert.Nil(t, out.Ending, "1 對 2 不應結束")
	require.Len(t, g.Bodies, 1)
	assert.Equal(t, "p2", g.Bodies[0].VictimID)
	assert.Equal(t, 1, g.Journal.Len())
}

func TestKillDifferentMapIsOutOfRange(t *testing.T) {
	g := fourPlayerGame(t)
	g.Players["p2"].MapID = "annexe"
	_, err := g.Kill("p1", "p2", t0.Add(time.Second))
	assert.Equal(t, RejectRange, RejectionCode(err))
}

func TestKillCooldown(t *testing.T) {
	g := fourPlayerGame(t)
	_, err := g.Kill("p1", "p2", t0.Add(time.Second))
	require.NoError(t, err)

	_, err = g.Kill("p1", "p3", t0.Add(10*time.Second))
	if RejectionCode(err) != RejectCooldown {
		t.Fatalf("冷卻中應被拒絕，實際 %v", err)
	}
	if !g.Players["p3"].Alive || len(g.Bodies) != 1 {
		t.Fatalf("被拒絕的擊殺不應改變狀態")
	}

	out, err := g.Kill("p1", "p3", t0.Add(26*time.Second))
	require.NoError(t, err)
	require.NotNil(t, out.Ending, "1 對 1 破壞者獲勝")
	assert.Equal(t, TeamSaboteurs, out.Ending.Winner)
	assert.Equal(t, PhaseEnd, g.Phase)
}

func TestKillImmunityWindow(t *testing.T) {
	g := fourPlayerGame(t)
	_, err := g.Kill("p1", "p4", t0.Add(30*time.Second))
	assert.Equal(t, RejectImmune, RejectionCode(err))
	assert.True(t, g.Players["p4"].Alive)

	_, err = g.Kill("p1", "p4", t0.Add(61*time.Second))
	require.NoError(t, err)
	assert.False(t, g.Players["p4"].Alive)
}

func TestKillGates(t *testing.T) {
	g := fourPlayerGame(t)
	now := t0.Add(time.Second)

	_, err := g.Kill("p2", "p3", now)
	assert.Equal(t, RejectRole, RejectionCode(err))
	_, err = g.Kill("p1", "p1", now)
	assert.Equal(t, RejectTarget, RejectionCode(err))
	_, err = g.Kill("p1", "nobody", now)
	assert.Equal(t, RejectTarget, RejectionCode(err))
	_, err = g.Kill("ghost", "p2", now)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	g.Phase = PhaseDiscussion
	_, err = g.Kill("p1", "p2", now)
	assert.Equal(t, RejectPhase, RejectionCode(err))
}

func TestReportForcesDiscussion(t *testing.T) {
	g := fourPlayerGame(t)
	g.Players["p3"].Pos = Vec{X: 400, Y: 400}
	_, err := g.Kill("p1", "p2", t0.Add(time.Second))
	require.NoError(t, err)
	body := g.Bodies[0].Pos

	g.Players["p3"].Pos = Vec{X: body.X + 81, Y: body.Y}
	_, err = g.Report("p3", t0.Add(2*time.Second))
	assert.Equal(t, RejectRange, RejectionCode(err))
	assert.Equal(t, PhaseRunning, g.Phase)

	g.Players["p3"].Pos = Vec{X: body.X + 80, Y: body.Y}
	m, err := g.Report("p3", t0.Add(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, Meeting{Type: MeetingBodyFound, CallerID: "p3", VictimID: "p2"}, *m)
	assert.Equal(t, PhaseDiscussion, g.Phase)
	assert.True(t, g.Bodies[0].Reported)

	g.Phase = PhaseRunning
	_, err = g.Report("p3", t0.Add(4*time.Second))
	assert.Equal(t, RejectRange, RejectionCode(err), "已回報的屍體不能再回報")
}

func TestDeadPlayerCannotAct(t *testing.T) {
	g := fourPlayerGame(t)
	_, err := g.Kill("p1", "p2", t0.Add(time.Second))
	require.NoError(t, err)

	_, err = g.Report("p2", t0.Add(2*time.Second))
	assert.Equal(t, RejectDead, RejectionCode(err))
	_, err = g.EmergencyCall("p2")
	assert.Equal(t, RejectDead, RejectionCode(err))
	assert.Equal(t, RejectDead, RejectionCode(g.Move("p2", Vec{X: 1, Y: 1}, t0.Add(3*time.Second))))
}

func TestEmergencyCall(t *testing.T) {
	g := fourPlayerGame(t)
	m, err := g.EmergencyCall("p4")
	require.NoError(t, err)
	assert.Equal(t, MeetingEmergency, m.Type)
	assert.Equal(t, PhaseDiscussion, g.Phase)

	assert.True(t, g.BeginVoting())
	assert.Equal(t, PhaseVoting, g.Phase)
	assert.False(t, g.BeginVoting())
}

func TestSabotageLifecycle(t *testing.T) {
	g := fourPlayerGame(t)
	now := t0.Add(time.Second)

	_, err := g.StartSabotage("p2", SabotageLights, now)
	assert.Equal(t, RejectRole, RejectionCode(err))
	sab, err := g.StartSabotage("p1", "", now)
	require.NoError(t, err)
	assert.Equal(t, SabotageLights, sab.Kind)
	assert.True(t, sab.LimitsVision())

	_, err = g.StartSabotage("p1", SabotageLights, now.Add(31*time.Second))
	assert.Equal(t, RejectBusy, RejectionCode(err))

	assert.True(t, g.ExpireSabotage())
	assert.False(t, g.ExpireSabotage())

	_, err = g.StartSabotage("p1", SabotageLights, now.Add(10*time.Second))
	assert.Equal(t, RejectCooldown, RejectionCode(err))
	_, err = g.StartSabotage("p1", SabotageLights, now.Add(30*time.Second))
	assert.NoError(t, err)
}

func TestSabotageOtherKindKeepsVision(t *testing.T) {
	g := fourPlayerGame(t)

	sab, err := g.StartSabotage("p1", "reactor", t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, SabotageKind("reactor"), sab.Kind)
	if sab.LimitsVision() {
		t.Fatal("只有斷電會限制視野")
	}
}

func TestRepair(t *testing.T) {
	g := fourPlayerGame(t)
	now := t0.Add(time.Second)
	mecano := g.Players["p3"]
	mecano.Pos = Vec{X: RepairPoint.X + 80, Y: RepairPoint.Y}

	assert.Equal(t, RejectRole, RejectionCode(g.Repair("p3", now)), "沒有破壞時無法修復")

	_, err := g.StartSabotage("p1", SabotageLights, now)
	require.NoError(t, err)

	g.Players["p2"].Pos = RepairPoint
	assert.Equal(t, RejectRole, RejectionCode(g.Repair("p2", now)))

	mecano.Pos = Vec{X: RepairPoint.X + 81, Y: RepairPoint.Y}
	assert.Equal(t, RejectRange, RejectionCode(g.Repair("p3", now)))
	assert.NotNil(t, g.Sabotage)

	mecano.Pos = Vec{X: RepairPoint.X + 80, Y: RepairPoint.Y}
	require.NoError(t, g.Repair("p3", now))
	assert.Nil(t, g.Sabotage)
	last, _ := g.Journal.Last()
	assert.Contains(t, last.Text, "修復")
}

func TestMoveClampsAndBoundsSpeed(t *testing.T) {
	g := fourPlayerGame(t)
	p := g.Players["p2"]
	p.Pos = Vec{X: 600, Y: 400}
	p.restPos = p.Pos

	require.NoError(t, g.Move("p2", Vec{X: 700, Y: 500}, t0.Add(time.Second)))
	assert.Equal(t, Vec{X: 640, Y: 480}, p.Pos)

	// 0.1 秒最多走 220*0.1+40 = 62
	p.Pos = Vec{X: 100, Y: 100}
	require.NoError(t, g.Move("p2", Vec{X: 400, Y: 100}, t0.Add(1100*time.Millisecond)))
	assert.InDelta(t, 162, p.Pos.X, 0.001)
	assert.InDelta(t, 100, p.Pos.Y, 0.001)
}

func TestMoveResetsIdleOnlyBeyondEpsilon(t *testing.T) {
	g := fourPlayerGame(t)
	p := g.Players["p2"]
	start := p.Pos

	require.NoError(t, g.Move("p2", Vec{X: start.X + 1, Y: start.Y}, t0.Add(3*time.Second)))
	assert.Equal(t, 3*time.Second, p.IdleFor(t0.Add(3*time.Second)), "小於 2 的位移不算移動")

	require.NoError(t, g.Move("p2", Vec{X: start.X + 5, Y: start.Y}, t0.Add(4*time.Second)))
	assert.Equal(t, time.Duration(0), p.IdleFor(t0.Add(4*time.Second)))
}

func TestScanProximityIsRateLimited(t *testing.T) {
	g := fourPlayerGame(t)
	g.Players["p4"].Pos = Vec{X: 600, Y: 450}

	// p1..p3 彼此距離都小於 120：三組
	assert.Equal(t, 3, g.ScanProximity(t0))
	assert.Equal(t, 0, g.ScanProximity(t0.Add(time.Second)))
	assert.Equal(t, 3, g.ScanProximity(t0.Add(2*time.Second)))

	g.Phase = PhaseDiscussion
	assert.Equal(t, 0, g.ScanProximity(t0.Add(10*time.Second)))
}
