package game

import "time"

// VoteResult 是一輪投票的結算；平手、棄票與免疫都是正常結果而非錯誤
type VoteResult struct {
	EliminatedID string         `json:"eliminatedId,omitempty"`
	Tie          bool           `json:"tie"`
	Skip         bool           `json:"skip"`
	Immune       bool           `json:"immune,omitempty"`
	Tally        map[string]int `json:"tally"`
	Ending       *Ending        `json:"-"`
}

// CastVote 記錄一票；同一投票者重複投票時以最後一票為準
func (g *Game) CastVote(voterID, targetID string) error {
	voter, err := g.actor(voterID)
	if err != nil {
		return err
	}
	if g.Phase != PhaseVoting {
		return reject(RejectPhase, "現在不是投票時間")
	}
	if !voter.Alive {
		return reject(RejectDead, "出局的玩家無法投票")
	}
	if targetID != SkipVote {
		if target, ok := g.Players[targetID]; !ok || !target.Alive {
			return reject(RejectTarget, "投票對象無效")
		}
	}
	g.votes[voterID] = targetID
	return nil
}

// Votes 回傳目前票數的副本
func (g *Game) Votes() map[string]string {
	out := make(map[string]string, len(g.votes))
	for k, v := range g.votes {
		out[k] = v
	}
	return out
}

// Tally 依職業加權統計票數：主管一票算兩票
func (g *Game) Tally() map[string]int {
	tally := make(map[string]int)
	for voterID, target := range g.votes {
		voter, ok := g.Players[voterID]
		if !ok {
			continue
		}
		if target != SkipVote {
			if _, ok := g.Players[target]; !ok {
				continue
			}
		}
		weight := 1
		if voter.Role == RoleChef {
			weight = 2
		}
		tally[target] += weight
	}
	return tally
}

// ResolveVotes 結算投票並執行淘汰，隨後判定勝負；未分勝負時回到進行階段
func (g *Game) ResolveVotes(now time.Time) (*VoteResult, bool) {
	if g.Phase != PhaseVoting {
		return nil, false
	}
	g.Phase = PhaseResolve

	tally := g.Tally()
	var top string
	topScore, atTop := 0, 0
	for target, score := range tally {
		switch {
		case score > topScore:
			top, topScore, atTop = target, score, 1
		case score == topScore:
			atTop++
		}
	}

	res := &VoteResult{Tally: tally}
	switch {
	case atTop > 1:
		res.Tie = true
	case topScore == 0:
		// 沒有人投票
	case top == SkipVote:
		res.Skip = true
	default:
		target := g.Players[top]
		if g.Immune(target, now) {
			res.Immune = true
			break
		}
		target.Alive = false
		res.EliminatedID = target.ID
	}
	g.votes = make(map[string]string)

	res.Ending = g.CheckWin()
	if res.Ending == nil {
		g.Phase = PhaseRunning
	}
	return res, true
}
