package domain

import "github.com/disgoorg/snowflake/v2"

// MaxJumpOptions is the number of upcoming tracks offered by the jump selector.
const MaxJumpOptions = 25

// PanelView is a read-only projection of a GuildQueue for rendering.
type PanelView struct {
	GuildID     snowflake.ID
	NowPlaying  *Track
	Page        []Track // upcoming tracks on the current page
	PageStart   int     // queue index of Page[0]
	PageIndex   int
	TotalPages  int
	TotalTracks int
	Loop        bool
	Shuffle     bool
	Paused      bool
	Draining    bool
	JumpOptions []Track // tracks[1:] capped at MaxJumpOptions
}

// View projects the queue at its current page.
func (q *GuildQueue) View() PanelView {
	return q.ViewPage(q.currentPage)
}

// ViewPage projects the queue at the given page, clamped to the valid range.
func (q *GuildQueue) ViewPage(page int) PanelView {
	page = max(0, min(page, q.TotalPages()-1))

	view := PanelView{
		GuildID:     q.guildID,
		PageIndex:   page,
		TotalPages:  q.TotalPages(),
		TotalTracks: len(q.tracks),
		Loop:        q.loop,
		Shuffle:     q.shuffle,
		Paused:      q.status == StatusPaused,
		Draining:    q.status == StatusDraining,
		Page:        []Track{},
		JumpOptions: []Track{},
	}

	if head, ok := q.Head(); ok {
		view.NowPlaying = &head
	}

	upcoming := q.Upcoming()
	start := page * PageSize
	if start < len(upcoming) {
		end := min(start+PageSize, len(upcoming))
		view.Page = upcoming[start:end]
	}
	view.PageStart = start + 1

	view.JumpOptions = upcoming[:min(len(upcoming), MaxJumpOptions)]

	return view
}

// CanSkip returns true if the skip-like controls apply, which needs at least two tracks.
func (v PanelView) CanSkip() bool {
	return v.TotalTracks > 1
}

// PanelControl identifies an interactive element of the panel.
type PanelControl string

// Panel controls. The values double as component custom IDs.
const (
	ControlSkip           PanelControl = "skip"
	ControlTogglePlayback PanelControl = "toggle_playback"
	ControlStop           PanelControl = "stop"
	ControlShuffle        PanelControl = "shuffle"
	ControlShuffleMode    PanelControl = "shuffle_mode"
	ControlLoop           PanelControl = "loop"
	ControlPrevious       PanelControl = "previous"
	ControlJumpModal      PanelControl = "jump_modal"
	ControlPagePrev       PanelControl = "panel_prev"
	ControlPageNext       PanelControl = "panel_next"
	ControlJumpSelect     PanelControl = "jump_select"
	ControlJumpSubmit     PanelControl = "jump_modal_submit"
	ControlSongNumber     PanelControl = "song_number_input"
)
