package domain

// PlaybackStatus is the state of a guild's playback state machine.
type PlaybackStatus int

const (
	StatusIdle      PlaybackStatus = iota // No track playing
	StatusLoading                         // Stream being resolved
	StatusPlaying                         // Track handed to the session
	StatusPaused                          // Track paused
	StatusDraining                        // Queue exhausted, awaiting idle timeout
	StatusDestroyed                       // Removed from the registry
)

// String returns a human-readable representation of the status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusDraining:
		return "draining"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "idle"
	}
}

// IsActive returns true if a track is currently held by the session.
func (s PlaybackStatus) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}

// AcceptsAdvance returns true if newly appended tracks should start playback.
func (s PlaybackStatus) AcceptsAdvance() bool {
	return s == StatusIdle || s == StatusDraining
}
