package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// Event is a value published on the event bus.
type Event interface {
	EventGuildID() snowflake.ID
}

// TrackEndReason represents why a track ended.
type TrackEndReason string

const (
	// TrackEndFinished means the track finished normally.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndLoadFailed means the track failed to load.
	TrackEndLoadFailed TrackEndReason = "load_failed"
	// TrackEndStopped means the track was stopped by the user.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndReplaced means the track was replaced by another.
	TrackEndReplaced TrackEndReason = "replaced"
	// TrackEndCleanup means the track was cleaned up.
	TrackEndCleanup TrackEndReason = "cleanup"
)

// ShouldAdvanceQueue returns true if this end reason should advance the queue.
// Replaced tracks are followed by their replacement, and cleanup means the player is gone.
func (r TrackEndReason) ShouldAdvanceQueue() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed || r == TrackEndStopped
}

// TrackEndedEvent is published when the audio node reports that playback went idle.
type TrackEndedEvent struct {
	GuildID   snowflake.ID
	StreamRef string
	Reason    TrackEndReason
}

func (e TrackEndedEvent) EventGuildID() snowflake.ID { return e.GuildID }

// DestroyReason explains why a GuildQueue was torn down.
type DestroyReason string

const (
	DestroyReasonStopped      DestroyReason = "stopped"
	DestroyReasonIdle         DestroyReason = "idle"
	DestroyReasonDisconnected DestroyReason = "disconnected"
	DestroyReasonShutdown     DestroyReason = "shutdown"
)

// QueueDestroyedEvent is published after a GuildQueue has been removed and its session released.
type QueueDestroyedEvent struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID
	Reason        DestroyReason
}

func (e QueueDestroyedEvent) EventGuildID() snowflake.ID { return e.GuildID }

// TrackSkippedEvent is published when a track could not be played and was dropped.
type TrackSkippedEvent struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID
	Track         Track
}

func (e TrackSkippedEvent) EventGuildID() snowflake.ID { return e.GuildID }
