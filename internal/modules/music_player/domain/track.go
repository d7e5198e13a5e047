package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// TrackID is a unique identifier for a track in a queue.
// Two requests for the same URL produce two distinct IDs.
type TrackID string

// NewTrackID returns a fresh random TrackID.
func NewTrackID() TrackID {
	return TrackID(uuid.NewString())
}

// Track represents a playable audio track.
// Tracks are values: once enqueued they are never mutated.
type Track struct {
	ID            TrackID
	Encoded       string // Lavalink encoded track data, empty until resolved
	Title         string
	Artist        string
	Duration      time.Duration
	URI           string
	ArtworkURL    string
	IsStream      bool
	RequesterID   snowflake.ID // Discord user who added the track
	RequesterName string       // Display name of the requester
	EnqueuedAt    time.Time
}

// RequestedBy returns a copy of the track stamped with a new ID and the given requester.
func (t Track) RequestedBy(requesterID snowflake.ID, requesterName string, at time.Time) Track {
	t.ID = NewTrackID()
	t.RequesterID = requesterID
	t.RequesterName = requesterName
	t.EnqueuedAt = at.UTC()
	return t
}

// IsValid returns true if the track has the minimum required fields.
func (t Track) IsValid() bool {
	return t.Title != "" && (t.URI != "" || t.Encoded != "")
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
