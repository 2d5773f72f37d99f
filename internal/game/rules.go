package game

import (
	"errors"
	"fmt"
	"time"
)

// Rules 收錄對局的所有可調參數，於程序啟動時由環境變數載入後即不可變更
type Rules struct {
	MinPlayers int `env:"MIN_PLAYERS" envDefault:"4"`
	MaxPlayers int `env:"MAX_PLAYERS" envDefault:"8"`

	ChatRange   float64 `env:"CHAT_RANGE" envDefault:"220"`
	KillRange   float64 `env:"KILL_RANGE" envDefault:"60"`
	ReportRange float64 `env:"REPORT_RANGE" envDefault:"80"`
	RepairRange float64 `env:"REPAIR_RANGE" envDefault:"80"`

	KillCooldown        time.Duration `env:"KILL_COOLDOWN" envDefault:"25s"`
	SabotageCooldown    time.Duration `env:"SABOTAGE_COOLDOWN" envDefault:"30s"`
	InvestigateCooldown time.Duration `env:"INVESTIGATE_COOLDOWN" envDefault:"40s"`
	ChatCooldown        time.Duration `env:"CHAT_COOLDOWN" envDefault:"800ms"`
	ImmunityWindow      time.Duration `env:"IMMUNITY_WINDOW" envDefault:"60s"`

	DiscussionDuration time.Duration `env:"DISCUSSION_DURATION" envDefault:"45s"`
	VotingDuration     time.Duration `env:"VOTING_DURATION" envDefault:"30s"`
	SabotageDuration   time.Duration `env:"SABOTAGE_DURATION" envDefault:"20s"`
	TickInterval       time.Duration `env:"TICK_INTERVAL" envDefault:"100ms"`

	IdleDuration time.Duration `env:"IDLE_DURATION" envDefault:"5s"`
	TimingWindow time.Duration `env:"TIMING_WINDOW" envDefault:"2s"`

	MoveSpeed           float64 `env:"MOVE_SPEED" envDefault:"220"`
	ChatMaxLen          int     `env:"CHAT_MAX_LEN" envDefault:"160"`
	RequireReady        bool    `env:"REQUIRE_READY" envDefault:"true"`
	InvestigateAccuracy float64 `env:"INVESTIGATE_ACCURACY" envDefault:"0.75"`
	JournalSize         int     `env:"JOURNAL_SIZE" envDefault:"50"`
}

// DefaultRules 回傳與環境變數預設值一致的參數
func DefaultRules() Rules {
	return Rules{
		MinPlayers:          4,
		MaxPlayers:          8,
		ChatRange:           220,
		KillRange:           60,
		ReportRange:         80,
		RepairRange:         80,
		KillCooldown:        25 * time.Second,
		SabotageCooldown:    30 * time.Second,
		InvestigateCooldown: 40 * time.Second,
		ChatCooldown:        800 * time.Millisecond,
		ImmunityWindow:      60 * time.Second,
		DiscussionDuration:  45 * time.Second,
		VotingDuration:      30 * time.Second,
		SabotageDuration:    20 * time.Second,
		TickInterval:        100 * time.Millisecond,
		IdleDuration:        5 * time.Second,
		TimingWindow:        2 * time.Second,
		MoveSpeed:           220,
		ChatMaxLen:          160,
		RequireReady:        true,
		InvestigateAccuracy: 0.75,
		JournalSize:         50,
	}
}

// ErrInvalidRules 表示參數組合不合理
var ErrInvalidRules = errors.New("invalid game rules")

// Validate 檢查參數是否可用於開局
func (r Rules) Validate() error {
	if r.MinPlayers < 2 || r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("%w: players %d-%d", ErrInvalidRules, r.MinPlayers, r.MaxPlayers)
	}
	durations := map[string]time.Duration{
		"discussion": r.DiscussionDuration,
		"voting":     r.VotingDuration,
		"sabotage":   r.SabotageDuration,
		"tick":       r.TickInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%w: %s duration must be positive", ErrInvalidRules, name)
		}
	}
	if r.InvestigateAccuracy < 0 || r.InvestigateAccuracy > 1 {
		return fmt.Errorf("%w: investigate accuracy %.2f", ErrInvalidRules, r.InvestigateAccuracy)
	}
	if r.ChatMaxLen <= 0 || r.JournalSize <= 0 {
		return fmt.Errorf("%w: chat length and journal size must be positive", ErrInvalidRules)
	}
	return nil
}
