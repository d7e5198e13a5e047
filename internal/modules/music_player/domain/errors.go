package domain

import "errors"

var (
	// ErrQueueNotFound is returned when no GuildQueue exists for a guild.
	ErrQueueNotFound = errors.New("queue not found")

	// ErrQueueExists is returned when creating a GuildQueue for a guild that already has one.
	ErrQueueExists = errors.New("queue already exists")

	// ErrInvalidIndex is returned when a jump target is outside [1, len-1].
	ErrInvalidIndex = errors.New("invalid queue index")
)
