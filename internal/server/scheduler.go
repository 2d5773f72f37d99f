package server

import "time"

type timerKey string

const (
	timerDiscussion timerKey = "discussion"
	timerVoting     timerKey = "voting"
	timerSabotage   timerKey = "sabotage"
	timerTick       timerKey = "tick"
)

// timerFired 由排程送進房間的收件匣；seq 與目前登記的不符時代表已被取消或重設
type timerFired struct {
	key timerKey
	seq uint64
}

type armedTimer struct {
	seq   uint64
	timer Timer
}

// scheduler 是房間唯一能設定或取消計時器的地方，只能在房間的事件迴圈中使用
type scheduler struct {
	clock Clock
	post  func(any)
	seq   uint64
	armed map[timerKey]armedTimer
}

func newScheduler(clock Clock, post func(any)) *scheduler {
	return &scheduler{
		clock: clock,
		post:  post,
		armed: make(map[timerKey]armedTimer),
	}
}

// arm 設定計時器，同一個 key 之前的計時器會被取代
func (s *scheduler) arm(key timerKey, d time.Duration) {
	s.cancel(key)
	s.seq++
	seq := s.seq
	post := s.post
	t := s.clock.AfterFunc(d, func() {
		post(timerFired{key: key, seq: seq})
	})
	s.armed[key] = armedTimer{seq: seq, timer: t}
}

func (s *scheduler) cancel(key timerKey) {
	if a, ok := s.armed[key]; ok {
		a.timer.Stop()
		delete(s.armed, key)
	}
}

func (s *scheduler) cancelAll() {
	for key := range s.armed {
		s.cancel(key)
	}
}

// claim 確認觸發事件仍然有效，有效時同時將它移除
func (s *scheduler) claim(ev timerFired) bool {
	a, ok := s.armed[ev.key]
	if !ok || a.seq != ev.seq {
		return false
	}
	delete(s.armed, ev.key)
	return true
}

func (s *scheduler) pending(key timerKey) bool {
	_, ok := s.armed[key]
	return ok
}
