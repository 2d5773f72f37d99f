package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// Random 是洗牌與抽選所需的亂數來源，*rand.Rand 即滿足此介面
type Random interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// NewRandom 建立以 seed 初始化的亂數來源；seed 為 0 時改用高熵種子
func NewRandom(seed int64) *rand.Rand {
	if seed == 0 {
		seed = newSeed()
	}
	return rand.New(rand.NewSource(seed))
}

func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func shuffled[T any](rng Random, items []T) []T {
	out := append([]T(nil), items...)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
