package game

import "time"

const journalPeekSize = 5

const (
	hintSuspicious = "這名玩家看起來相當可疑。"
	hintClean      = "這名玩家看起來還算清白。"
	revealFallback = "目前沒有值得注意的紀錄。"
)

var depanneurHints = []string{
	"最近庫存區附近有可疑的動靜。",
	"辦公室那邊傳來奇怪的聲響。",
	"有人常常在停車場附近徘徊。",
}

// Investigation 是主管調查的結果；Hint 有一定機率是錯的
type Investigation struct {
	TargetID string `json:"targetId"`
	Hint     string `json:"hint"`
}

// Investigate 由主管調查目標陣營，只回傳帶有雜訊的提示
func (g *Game) Investigate(actorID, targetID string, now time.Time) (*Investigation, error) {
	actor, err := g.runningActor(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleChef {
		return nil, reject(RejectRole, "只有主管可以調查")
	}
	if !actor.cooldownReady(AbilityInvestigate, g.rules.InvestigateCooldown, now) {
		return nil, reject(RejectCooldown, "調查冷卻中")
	}
	target, ok := g.Players[targetID]
	if !ok || !target.Alive || target.ID == actor.ID {
		return nil, reject(RejectTarget, "目標無效")
	}

	actor.markUsed(AbilityInvestigate, now)
	truthful := g.rng.Float64() < g.rules.InvestigateAccuracy
	suspicious := target.IsSaboteur() == truthful
	hint := hintClean
	if suspicious {
		hint = hintSuspicious
	}
	return &Investigation{TargetID: target.ID, Hint: hint}, nil
}

// RevealJournal 由會計公開最新一筆紀錄，每局只能使用一次
func (g *Game) RevealJournal(actorID string) (string, error) {
	actor, err := g.runningActor(actorID)
	if err != nil {
		return "", err
	}
	if actor.Role != RoleComptable {
		return "", reject(RejectRole, "只有會計可以公開紀錄")
	}
	if actor.usedReveal {
		return "", reject(RejectUsed, "公開紀錄已經用過了")
	}
	actor.usedReveal = true
	if entry, ok := g.Journal.Last(); ok {
		return entry.Text, nil
	}
	return revealFallback, nil
}

// PeekJournal 讓會計私下查看最近幾筆紀錄；不限階段也不限次數
func (g *Game) PeekJournal(actorID string) ([]string, error) {
	actor, err := g.actor(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleComptable {
		return nil, reject(RejectRole, "只有會計可以查看紀錄")
	}
	entries := g.Journal.Tail(journalPeekSize)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out, nil
}

// DepanneurHint 由拖吊員取得一則隨機提示，每局只能使用一次
func (g *Game) DepanneurHint(actorID string) (string, error) {
	actor, err := g.runningActor(actorID)
	if err != nil {
		return "", err
	}
	if actor.Role != RoleDepanneur {
		return "", reject(RejectRole, "只有拖吊員可以取得提示")
	}
	if actor.usedHint {
		return "", reject(RejectUsed, "提示已經用過了")
	}
	actor.usedHint = true
	return depanneurHints[g.rng.Intn(len(depanneurHints))], nil
}

// TaskOutcome 是一次任務互動的結果
type TaskOutcome struct {
	Task   *Task
	Result TaskResult
}

// InteractTask 以玩家目前所在區域推進指定任務
func (g *Game) InteractTask(actorID, taskID string, now time.Time) (*TaskOutcome, error) {
	actor, err := g.runningActor(actorID)
	if err != nil {
		return nil, err
	}
	task := actor.Task(taskID)
	if task == nil {
		return nil, reject(RejectTarget, "找不到這項任務")
	}
	zone, _ := ZoneAt(actor.MapID, actor.Pos)
	res, err := task.Interact(TaskContext{
		Zone:    zone,
		Now:     now,
		IdleFor: actor.IdleFor(now),
		Rules:   g.rules,
	})
	if err != nil {
		return nil, err
	}
	return &TaskOutcome{Task: task, Result: res}, nil
}
