package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// MemoryRegistry is an in-memory implementation of QueueRegistry.
type MemoryRegistry struct {
	mu     sync.RWMutex
	queues map[snowflake.ID]*domain.GuildQueue
}

// NewMemoryRegistry creates a new MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		queues: make(map[snowflake.ID]*domain.GuildQueue),
	}
}

// Get returns a copy of the GuildQueue for the given guild.
func (r *MemoryRegistry) Get(guildID snowflake.ID) (*domain.GuildQueue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queue, ok := r.queues[guildID]
	if !ok {
		return nil, false
	}
	return queue.Clone(), true
}

// Create stores a new GuildQueue.
func (r *MemoryRegistry) Create(queue *domain.GuildQueue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queues[queue.GuildID()]; ok {
		return domain.ErrQueueExists
	}
	r.queues[queue.GuildID()] = queue
	return nil
}

// Update applies fn to the stored GuildQueue under the write lock.
func (r *MemoryRegistry) Update(guildID snowflake.ID, fn func(q *domain.GuildQueue) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue, ok := r.queues[guildID]
	if !ok {
		return domain.ErrQueueNotFound
	}
	return fn(queue)
}

// Delete removes the GuildQueue unless keep vetoes it.
func (r *MemoryRegistry) Delete(
	guildID snowflake.ID,
	keep func(q *domain.GuildQueue) bool,
) (*domain.GuildQueue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue, ok := r.queues[guildID]
	if !ok {
		return nil, false
	}
	if keep != nil && keep(queue) {
		return nil, false
	}
	delete(r.queues, guildID)
	return queue, true
}

// GuildIDs returns the guilds that currently have a queue.
func (r *MemoryRegistry) GuildIDs() []snowflake.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]snowflake.ID, 0, len(r.queues))
	for id := range r.queues {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of queues (for testing/monitoring).
func (r *MemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.queues)
}

// Ensure MemoryRegistry implements QueueRegistry.
var _ domain.QueueRegistry = (*MemoryRegistry)(nil)
