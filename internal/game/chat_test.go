package game

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatProximityRouting(t *testing.T) {
	g := fourPlayerGame(t)
	g.Players["p1"].Pos = Vec{X: 100, Y: 100}
	g.Players["p2"].Pos = Vec{X: 320, Y: 100} // 剛好 220
	g.Players["p3"].Pos = Vec{X: 321, Y: 100}
	g.Players["p4"].Pos = Vec{X: 100, Y: 150}
	g.Players["p4"].Alive = false

	msg, to, err := g.Chat("p1", "  有人在嗎  ", t0)
	require.NoError(t, err)
	assert.Equal(t, "有人在嗎", msg.Text)
	assert.Equal(t, ChannelProximity, msg.Channel)
	assert.Equal(t, []string{"p1", "p2"}, to)
}

func TestChatGlobalDuringMeeting(t *testing.T) {
	g := fourPlayerGame(t)
	g.Players["p3"].Pos = Vec{X: 600, Y: 450}
	g.Players["p4"].Alive = false
	_, err := g.EmergencyCall("p2")
	require.NoError(t, err)

	msg, to, err := g.Chat("p2", "是 p1！", t0)
	require.NoError(t, err)
	assert.Equal(t, ChannelGlobal, msg.Channel)
	assert.Equal(t, []string{"p1", "p2", "p3"}, to)

	_, _, err = g.Chat("p4", "我是鬼", t0.Add(time.Second))
	assert.Equal(t, RejectDead, RejectionCode(err))
}

func TestChatRateLimit(t *testing.T) {
	g := fourPlayerGame(t)
	_, _, err := g.Chat("p2", "一", t0)
	require.NoError(t, err)

	_, _, err = g.Chat("p2", "二", t0.Add(500*time.Millisecond))
	assert.Equal(t, RejectCooldown, RejectionCode(err))

	_, _, err = g.Chat("p2", "三", t0.Add(1300*time.Millisecond))
	assert.NoError(t, err)

	// 空白訊息不消耗額度
	_, _, err = g.Chat("p3", "   ", t0)
	assert.Equal(t, RejectInput, RejectionCode(err))
	_, _, err = g.Chat("p3", "嗨", t0)
	assert.NoError(t, err)
}

func TestChatTruncatesAndPhaseGate(t *testing.T) {
	g := fourPlayerGame(t)
	msg, _, err := g.Chat("p2", strings.Repeat("車", 200), t0)
	require.NoError(t, err)
	assert.Equal(t, 160, utf8.RuneCountInString(msg.Text))

	lobby := newLobby(t, 4)
	_, _, err = lobby.Chat("p1", "hello", t0)
	assert.Equal(t, RejectPhase, RejectionCode(err))
}

func TestJournalDropsOldest(t *testing.T) {
	j := newJournal(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		j.Add(t0, s)
	}
	tail := j.Tail(10)
	got := make([]string, 0, len(tail))
	for _, e := range tail {
		got = append(got, e.Text)
	}
	if strings.Join(got, ",") != "b,c,d" {
		t.Fatalf("紀錄應捨棄最舊的一筆，實際 %v", got)
	}
	tail[0].Text = "changed"
	if first := j.Tail(3)[0].Text; first != "b" {
		t.Fatalf("Tail 應回傳副本，實際 %s", first)
	}
	last, ok := j.Last()
	if !ok || last.Text != "d" {
		t.Fatalf("最新一筆應為 d，實際 %+v", last)
	}
}
