package game

import "time"

// JournalEntry 是一筆值得記錄的互動
type JournalEntry struct {
	At   time.Time `json:"ts"`
	Text string    `json:"text"`
}

// Journal 是固定長度的近期事件紀錄，超出上限時捨棄最舊的紀錄
type Journal struct {
	entries []JournalEntry
	limit   int
}

func newJournal(limit int) *Journal {
	if limit <= 0 {
		limit = 50
	}
	return &Journal{limit: limit}
}

// Add 追加一筆紀錄
func (j *Journal) Add(at time.Time, text string) {
	j.entries = append(j.entries, JournalEntry{At: at, Text: text})
	if over := len(j.entries) - j.limit; over > 0 {
		j.entries = append(j.entries[:0:0], j.entries[over:]...)
	}
}

// Last 回傳最新一筆紀錄
func (j *Journal) Last() (JournalEntry, bool) {
	if len(j.entries) == 0 {
		return JournalEntry{}, false
	}
	return j.entries[len(j.entries)-1], true
}

// Tail 回傳最後 n 筆紀錄的副本
func (j *Journal) Tail(n int) []JournalEntry {
	if n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]JournalEntry, n)
	copy(out, j.entries[len(j.entries)-n:])
	return out
}

// Len 回傳目前紀錄筆數
func (j *Journal) Len() int {
	return len(j.entries)
}

func (j *Journal) clear() {
	j.entries = nil
}
