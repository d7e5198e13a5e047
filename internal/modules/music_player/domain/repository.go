package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// QueueRegistry owns the GuildQueue of every guild.
// Update runs fn atomically with respect to every other registry call,
// so fn must not block or perform I/O.
type QueueRegistry interface {
	// Get returns a detached copy of the guild's queue.
	Get(guildID snowflake.ID) (*GuildQueue, bool)

	// Create stores a new queue. Returns ErrQueueExists if the guild already has one.
	Create(queue *GuildQueue) error

	// Update applies fn to the live queue. Returns ErrQueueNotFound if absent,
	// otherwise whatever fn returns.
	Update(guildID snowflake.ID, fn func(q *GuildQueue) error) error

	// Delete removes the guild's queue if keep is nil or returns false.
	// The removed queue is returned so the caller can release its resources.
	Delete(guildID snowflake.ID, keep func(q *GuildQueue) bool) (*GuildQueue, bool)

	// GuildIDs lists guilds that currently have a queue.
	GuildIDs() []snowflake.ID
}
