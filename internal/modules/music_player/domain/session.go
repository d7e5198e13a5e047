package domain

import "context"

// Stream is a resolved, playable handle for a Track.
type Stream struct {
	// Ref identifies the stream on the audio node. Idle notifications carry the same value.
	Ref   string
	Track Track
}

// AudioSession owns one voice connection and one playback engine for a guild.
// Idle notifications are delivered as TrackEndedEvent through the event bus.
type AudioSession interface {
	Play(ctx context.Context, stream Stream) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	// Destroy releases the connection. Calls after the first are no-ops.
	Destroy(ctx context.Context) error
}
