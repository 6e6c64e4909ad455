package bouquet

import (
	"math/rand"
	"sync"
	"time"
)

// Random 備援推薦使用的隨機來源
type Random interface {
	Intn(n int) int
	Perm(n int) []int
}

// lockedRand 讓 *rand.Rand 可以被多個請求共用
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom 以種子建立隨機來源，seed 為 0 時以時間為種子
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Perm(n)
}
