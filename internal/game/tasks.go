package game

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TaskKind 是任務種類標籤
type TaskKind string

const (
	TaskSequentialWalk TaskKind = "voiture"
	TaskMultiVisit     TaskKind = "commande"
	TaskTimedWindow    TaskKind = "pont"
	TaskTwoStageFetch  TaskKind = "huile"
	TaskDecoyInventory TaskKind = "inventaire"
	TaskIdleAtZone     TaskKind = "cafe"
)

const (
	timedWindowLead  = 1500 * time.Millisecond
	timedWindowRetry = time.Second
)

var walkCandidates = []string{ZoneBureau, ZoneStock, ZoneComptoir, ZoneAtelier, ZonePont, ZoneParking}

// Task 是一項私人任務；Detail 依種類保存各自的進度
type Task struct {
	ID        string
	Kind      TaskKind
	Title     string
	Completed bool
	Detail    TaskDetail
}

// TaskDetail 是各任務種類的進度狀態
type TaskDetail interface {
	kind() TaskKind
}

// SequentialWalk 必須依序走訪三個區域
type SequentialWalk struct {
	Steps    []string `json:"steps"`
	Progress int      `json:"progress"`
}

// MultiVisit 需以任意順序走訪所有指定區域
type MultiVisit struct {
	Required []string `json:"required"`
	Visited  []string `json:"visited"`
}

// TimedWindow 必須在時間窗內於指定區域互動
type TimedWindow struct {
	Zone        string    `json:"zone"`
	WindowStart time.Time `json:"windowStart"`
	Failed      int       `json:"failed"`
}

// TwoStageFetch 先到取貨區，再到目的區
type TwoStageFetch struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Stage       int    `json:"stage"`
}

// DecoyInventory 只有真正的盤點區會計入完成條件，誘餌區可互動但不計分
type DecoyInventory struct {
	Real    []string `json:"real"`
	Fake    string   `json:"fake"`
	Checked []string `json:"checked"`
}

// IdleAtZone 需在指定區域靜止一段時間
type IdleAtZone struct {
	Zone string `json:"zone"`
}

func (*SequentialWalk) kind() TaskKind { return TaskSequentialWalk }
func (*MultiVisit) kind() TaskKind     { return TaskMultiVisit }
func (*TimedWindow) kind() TaskKind    { return TaskTimedWindow }
func (*TwoStageFetch) kind() TaskKind  { return TaskTwoStageFetch }
func (*DecoyInventory) kind() TaskKind { return TaskDecoyInventory }
func (*IdleAtZone) kind() TaskKind     { return TaskIdleAtZone }

// MarshalJSON 將任務攤平成客戶端使用的格式
func (t *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string     `json:"id"`
		Type      TaskKind   `json:"type"`
		Title     string     `json:"title"`
		Completed bool       `json:"completed"`
		Detail    TaskDetail `json:"detail"`
	}{t.ID, t.Kind, t.Title, t.Completed, t.Detail})
}

// TaskContext 是一次任務互動時的環境
type TaskContext struct {
	Zone    string
	Now     time.Time
	IdleFor time.Duration
	Rules   Rules
}

// TaskResult 描述互動後的變化；Missed 表示錯過時間窗（狀態仍有更新）
type TaskResult struct {
	Completed bool
	Missed    bool
}

// NewTaskSet 產生一名玩家本局的六項任務
func NewTaskSet(rng Random, now time.Time) []*Task {
	steps := shuffled(rng, walkCandidates)[:3]
	return []*Task{
		{
			ID:     newTaskID(TaskSequentialWalk),
			Kind:   TaskSequentialWalk,
			Title:  "問題車輛",
			Detail: &SequentialWalk{Steps: steps},
		},
		{
			ID:     newTaskID(TaskMultiVisit),
			Kind:   TaskMultiVisit,
			Title:  "可疑訂單",
			Detail: &MultiVisit{Required: []string{ZoneBureau, ZoneStock, ZoneComptoir}},
		},
		{
			ID:     newTaskID(TaskTimedWindow),
			Kind:   TaskTimedWindow,
			Title:  "調整升降機",
			Detail: &TimedWindow{Zone: ZonePont, WindowStart: now.Add(timedWindowLead)},
		},
		{
			ID:     newTaskID(TaskTwoStageFetch),
			Kind:   TaskTwoStageFetch,
			Title:  "機油外洩",
			Detail: &TwoStageFetch{Source: ZoneProduit, Destination: ZoneNettoyage},
		},
		{
			ID:    newTaskID(TaskDecoyInventory),
			Kind:  TaskDecoyInventory,
			Title: "幽靈盤點",
			Detail: &DecoyInventory{
				Real: []string{ZoneInventaire1, ZoneInventaire2, ZoneInventaire3},
				Fake: ZoneParking,
			},
		},
		{
			ID:     newTaskID(TaskIdleAtZone),
			Kind:   TaskIdleAtZone,
			Title:  "咖啡時間",
			Detail: &IdleAtZone{Zone: ZoneCafe},
		},
	}
}

func newTaskID(kind TaskKind) string {
	return "task-" + string(kind) + "-" + uuid.NewString()[:8]
}

// Interact 依任務種類推進進度；失敗時不改變任何狀態
func (t *Task) Interact(ctx TaskContext) (TaskResult, error) {
	if t.Completed {
		return TaskResult{}, reject(RejectCompleted, "任務已完成")
	}

	switch d := t.Detail.(type) {
	case *SequentialWalk:
		if ctx.Zone == "" || ctx.Zone != d.Steps[d.Progress] {
			return TaskResult{}, reject(RejectZone, "這一步的區域不對")
		}
		d.Progress++
		t.Completed = d.Progress >= len(d.Steps)

	case *MultiVisit:
		if !slices.Contains(d.Required, ctx.Zone) {
			return TaskResult{}, reject(RejectZone, "請到指定區域核對訂單")
		}
		if !slices.Contains(d.Visited, ctx.Zone) {
			d.Visited = append(d.Visited, ctx.Zone)
		}
		t.Completed = len(d.Visited) >= len(d.Required)

	case *TimedWindow:
		if ctx.Zone != d.Zone {
			return TaskResult{}, reject(RejectZone, "請靠近升降機")
		}
		open := !ctx.Now.Before(d.WindowStart) && !ctx.Now.After(d.WindowStart.Add(ctx.Rules.TimingWindow))
		if !open {
			d.Failed++
			d.WindowStart = ctx.Now.Add(timedWindowRetry)
			return TaskResult{Missed: true}, nil
		}
		t.Completed = true

	case *TwoStageFetch:
		switch d.Stage {
		case 0:
			if ctx.Zone != d.Source {
				return TaskResult{}, reject(RejectZone, "先去拿清潔用品")
			}
			d.Stage = 1
		default:
			if ctx.Zone != d.Destination {
				return TaskResult{}, reject(RejectZone, "清潔區域不對")
			}
			d.Stage = 2
			t.Completed = true
		}

	case *DecoyInventory:
		if ctx.Zone == "" || (!slices.Contains(d.Real, ctx.Zone) && ctx.Zone != d.Fake) {
			return TaskResult{}, reject(RejectZone, "盤點位置不對")
		}
		if !slices.Contains(d.Checked, ctx.Zone) {
			d.Checked = append(d.Checked, ctx.Zone)
		}
		found := 0
		for _, z := range d.Checked {
			if slices.Contains(d.Real, z) {
				found++
			}
		}
		t.Completed = found >= len(d.Real)

	case *IdleAtZone:
		if ctx.Zone != d.Zone {
			return TaskResult{}, reject(RejectZone, "請到咖啡區坐下")
		}
		if ctx.IdleFor < ctx.Rules.IdleDuration {
			return TaskResult{}, reject(RejectNotReady, "請保持靜止幾秒鐘")
		}
		t.Completed = true

	default:
		return TaskResult{}, reject(RejectInput, "未知任務")
	}

	return TaskResult{Completed: t.Completed}, nil
}
