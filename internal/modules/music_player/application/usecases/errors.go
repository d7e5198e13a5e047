package usecases

import (
	"errors"
	"fmt"

	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// User-facing errors for the music player module.
var (
	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you need to be in a voice channel to play music")

	// ErrMissingVoicePermissions is returned when the bot cannot join or speak in the user's channel.
	ErrMissingVoicePermissions = errors.New(
		"I need permissions to join and speak in your voice channel",
	)

	// ErrQueueAlreadyActive is returned when a play request hits an active playlist in exclusive mode.
	ErrQueueAlreadyActive = errors.New(
		"a playlist is already active, use /stop before playing a new one",
	)

	// ErrEmptyQuery is returned when a play request has no query.
	ErrEmptyQuery = errors.New("please provide a YouTube URL or search term")

	// ErrNoQueue is returned when an action needs a queue and the guild has none.
	ErrNoQueue = errors.New("there is no music playing")

	// ErrNotEnoughTracks is returned when an action needs more tracks than the queue holds.
	ErrNotEnoughTracks = errors.New("there are not enough songs in the queue")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNoResults is returned when a search yields no results.
	ErrNoResults = errors.New("no results found")

	// ErrResolutionFailed is returned when the track lookup itself failed.
	ErrResolutionFailed = errors.New("there was an error processing your request")

	// ErrConnectFailed is returned when the bot could not join the voice channel.
	ErrConnectFailed = errors.New("failed to join your voice channel")
)

// SongNumberError reports a jump target outside the queue.
type SongNumberError struct {
	Max int
}

func (e *SongNumberError) Error() string {
	if e.Max < 1 {
		return "there are no upcoming songs to jump to"
	}
	return fmt.Sprintf("invalid song number, please provide a number between 1 and %d", e.Max)
}

func (e *SongNumberError) Unwrap() error {
	return domain.ErrInvalidIndex
}
