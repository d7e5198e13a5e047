package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PageSize is the number of upcoming tracks shown per panel page.
const PageSize = 10

// RandomSource picks uniformly distributed indices. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// PanelMessage identifies the message that displays a guild's panel.
type PanelMessage struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// GuildQueue is the per-guild play queue and playback state.
// tracks[0] is the track currently playing or about to play.
type GuildQueue struct {
	guildID        snowflake.ID
	voiceChannelID snowflake.ID
	textChannelID  snowflake.ID

	tracks      []Track
	loop        bool
	shuffle     bool
	currentPage int

	panel   *PanelMessage
	session AudioSession

	status     PlaybackStatus
	playingRef string // stream awaiting its single idle notification
	drainSeq   uint64
}

// NewGuildQueue creates a new GuildQueue in the Idle state.
func NewGuildQueue(
	guildID, voiceChannelID, textChannelID snowflake.ID,
	tracks []Track,
	loop bool,
) *GuildQueue {
	q := &GuildQueue{
		guildID:        guildID,
		voiceChannelID: voiceChannelID,
		textChannelID:  textChannelID,
		loop:           loop,
		status:         StatusIdle,
	}
	q.Append(tracks...)
	return q
}

func (q *GuildQueue) GuildID() snowflake.ID        { return q.guildID }
func (q *GuildQueue) VoiceChannelID() snowflake.ID { return q.voiceChannelID }
func (q *GuildQueue) TextChannelID() snowflake.ID  { return q.textChannelID }
func (q *GuildQueue) Loop() bool                   { return q.loop }
func (q *GuildQueue) ShuffleMode() bool            { return q.shuffle }
func (q *GuildQueue) CurrentPage() int             { return q.currentPage }
func (q *GuildQueue) Status() PlaybackStatus       { return q.status }
func (q *GuildQueue) Session() AudioSession        { return q.session }

// SetVoiceChannelID records that the bot now sits in another voice channel.
func (q *GuildQueue) SetVoiceChannelID(id snowflake.ID) {
	q.voiceChannelID = id
}

// SetTextChannelID changes where notices and the panel are posted.
func (q *GuildQueue) SetTextChannelID(id snowflake.ID) {
	q.textChannelID = id
}

// AttachSession hands ownership of an opened session to the queue.
func (q *GuildQueue) AttachSession(s AudioSession) {
	q.session = s
}

// ToggleLoop flips loop mode and returns the new value.
func (q *GuildQueue) ToggleLoop() bool {
	q.loop = !q.loop
	return q.loop
}

// ToggleShuffleMode flips persistent shuffle mode and returns the new value.
func (q *GuildQueue) ToggleShuffleMode() bool {
	q.shuffle = !q.shuffle
	return q.shuffle
}

// Panel returns the current panel message handle, or nil.
func (q *GuildQueue) Panel() *PanelMessage {
	if q.panel == nil {
		return nil
	}
	p := *q.panel
	return &p
}

// SetPanel replaces the panel message handle.
func (q *GuildQueue) SetPanel(p *PanelMessage) {
	if p == nil {
		q.panel = nil
		return
	}
	cp := *p
	q.panel = &cp
}

// Len returns the number of tracks including the head.
func (q *GuildQueue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *GuildQueue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Head returns tracks[0].
func (q *GuildQueue) Head() (Track, bool) {
	if q.IsEmpty() {
		return Track{}, false
	}
	return q.tracks[0], true
}

// At returns the track at index.
func (q *GuildQueue) At(index int) (Track, bool) {
	if index < 0 || index >= len(q.tracks) {
		return Track{}, false
	}
	return q.tracks[index], true
}

// Tracks returns a copy of all tracks.
func (q *GuildQueue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Upcoming returns a copy of tracks[1:].
func (q *GuildQueue) Upcoming() []Track {
	if len(q.tracks) < 2 {
		return []Track{}
	}
	result := make([]Track, len(q.tracks)-1)
	copy(result, q.tracks[1:])
	return result
}

// Append adds tracks to the tail.
func (q *GuildQueue) Append(tracks ...Track) {
	q.tracks = append(q.tracks, tracks...)
	q.clampPage()
}

// CompleteHead pops the finished head. With loop on it is re-appended to the tail;
// with shuffle mode on a random element of the remainder then becomes the new head.
func (q *GuildQueue) CompleteHead(rng RandomSource) (Track, bool) {
	head, ok := q.DropHead()
	if !ok {
		return Track{}, false
	}
	if q.loop {
		q.tracks = append(q.tracks, head)
	}
	if q.shuffle && len(q.tracks) > 1 {
		j := rng.IntN(len(q.tracks))
		picked := q.tracks[j]
		copy(q.tracks[1:j+1], q.tracks[:j])
		q.tracks[0] = picked
	}
	q.clampPage()
	return head, true
}

// DropHead removes tracks[0] without loop reinsertion.
func (q *GuildQueue) DropHead() (Track, bool) {
	if q.IsEmpty() {
		return Track{}, false
	}
	head := q.tracks[0]
	q.tracks = append(q.tracks[:0:0], q.tracks[1:]...)
	q.clampPage()
	return head, true
}

// ShuffleUpcoming performs a Fisher-Yates shuffle of tracks[1:] and resets the page.
// The head never moves.
func (q *GuildQueue) ShuffleUpcoming(rng RandomSource) {
	ShuffleTracks(q.tracks[min(1, len(q.tracks)):], rng)
	q.currentPage = 0
}

// ShuffleTracks performs an in-place Fisher-Yates shuffle.
func ShuffleTracks(tracks []Track, rng RandomSource) {
	for i := len(tracks) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
}

// Jump moves tracks[1:index] to the tail so that tracks[index] directly follows the head.
// Nothing is mutated when index is outside [1, len-1].
func (q *GuildQueue) Jump(index int) (Track, error) {
	if index < 1 || index >= len(q.tracks) {
		return Track{}, ErrInvalidIndex
	}
	target := q.tracks[index]

	moved := make([]Track, index-1)
	copy(moved, q.tracks[1:index])

	reordered := make([]Track, 0, len(q.tracks))
	reordered = append(reordered, q.tracks[0])
	reordered = append(reordered, q.tracks[index:]...)
	reordered = append(reordered, moved...)
	q.tracks = reordered

	return target, nil
}

// Previous moves the tail track to the head.
func (q *GuildQueue) Previous() (Track, bool) {
	n := len(q.tracks)
	if n < 2 {
		return Track{}, false
	}
	tail := q.tracks[n-1]
	copy(q.tracks[1:], q.tracks[:n-1])
	q.tracks[0] = tail
	return tail, true
}

// TotalPages returns the number of pages over tracks[1:], at least 1.
func (q *GuildQueue) TotalPages() int {
	upcoming := len(q.tracks) - 1
	if upcoming <= 0 {
		return 1
	}
	return (upcoming + PageSize - 1) / PageSize
}

// Paginate moves the page cursor by delta, clamped to the valid range.
func (q *GuildQueue) Paginate(delta int) int {
	q.currentPage += delta
	q.clampPage()
	return q.currentPage
}

// ResetPage moves the page cursor back to the first page.
func (q *GuildQueue) ResetPage() {
	q.currentPage = 0
}

func (q *GuildQueue) clampPage() {
	q.currentPage = max(0, min(q.currentPage, q.TotalPages()-1))
}

// BeginLoading marks that a stream is being resolved for the head.
func (q *GuildQueue) BeginLoading() {
	q.status = StatusLoading
	q.playingRef = ""
}

// AbortLoading returns to Idle after a failed or abandoned load.
func (q *GuildQueue) AbortLoading() {
	if q.status == StatusLoading {
		q.status = StatusIdle
	}
}

// MarkPlaying arms the idle notification for the stream now playing.
func (q *GuildQueue) MarkPlaying(ref string) {
	q.status = StatusPlaying
	q.playingRef = ref
}

// MarkPaused transitions Playing to Paused.
func (q *GuildQueue) MarkPaused() bool {
	if q.status != StatusPlaying {
		return false
	}
	q.status = StatusPaused
	return true
}

// MarkResumed transitions Paused to Playing.
func (q *GuildQueue) MarkResumed() bool {
	if q.status != StatusPaused {
		return false
	}
	q.status = StatusPlaying
	return true
}

// ConsumeIdle reports whether ref is the armed stream and disarms it.
// Each play yields at most one accepted idle notification.
func (q *GuildQueue) ConsumeIdle(ref string) bool {
	if !q.status.IsActive() || q.playingRef == "" || q.playingRef != ref {
		return false
	}
	q.playingRef = ""
	q.status = StatusIdle
	return true
}

// BeginDraining enters Draining and returns the generation that a drain timer must match.
func (q *GuildQueue) BeginDraining() uint64 {
	q.drainSeq++
	q.status = StatusDraining
	q.playingRef = ""
	return q.drainSeq
}

// IsDrainingAt returns true if the queue is still draining under the given generation.
func (q *GuildQueue) IsDrainingAt(seq uint64) bool {
	return q.status == StatusDraining && q.drainSeq == seq
}

// MarkDestroyed is the terminal transition.
func (q *GuildQueue) MarkDestroyed() {
	q.status = StatusDestroyed
	q.playingRef = ""
}

// Clone returns a detached copy. The session handle is shared.
func (q *GuildQueue) Clone() *GuildQueue {
	c := *q
	c.tracks = q.Tracks()
	c.panel = q.Panel()
	return &c
}
