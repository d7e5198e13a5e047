package usecases

import (
	"math/rand/v2"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// guildLocks hands out one mutex per guild. An entry lives only while
// someone holds or waits for it.
type guildLocks struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*guildLock
}

type guildLock struct {
	mu   sync.Mutex
	refs int
}

func newGuildLocks() *guildLocks {
	return &guildLocks{locks: make(map[snowflake.ID]*guildLock)}
}

// lock acquires the guild's mutex and returns its unlock function.
func (g *guildLocks) lock(guildID snowflake.ID) func() {
	g.mu.Lock()
	l, ok := g.locks[guildID]
	if !ok {
		l = &guildLock{}
		g.locks[guildID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		g.mu.Lock()
		defer g.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, guildID)
		}
	}
}

func (g *guildLocks) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}

// lockedRand is a goroutine-safe domain.RandomSource.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a goroutine-safe random source seeded from the runtime.
func NewRandomSource() domain.RandomSource {
	return newLockedRand(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func newLockedRand(rng *rand.Rand) *lockedRand {
	return &lockedRand{rng: rng}
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
