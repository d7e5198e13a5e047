package domain

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

// fixedRandom returns the queued values in order, then zero.
type fixedRandom struct {
	values []int
}

func (r *fixedRandom) IntN(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func tracksOf(ids ...string) []Track {
	tracks := make([]Track, len(ids))
	for i, id := range ids {
		tracks[i] = Track{ID: TrackID(id), Title: "Track " + id, URI: "https://example.com/" + id}
	}
	return tracks
}

func idsOf(q *GuildQueue) []string {
	ids := make([]string, 0, q.Len())
	for _, t := range q.Tracks() {
		ids = append(ids, string(t.ID))
	}
	return ids
}

func newTestQueue(loop bool, ids ...string) *GuildQueue {
	return NewGuildQueue(snowflake.ID(1), snowflake.ID(2), snowflake.ID(3), tracksOf(ids...), loop)
}

func TestNewGuildQueue(t *testing.T) {
	q := newTestQueue(true, "a", "b")

	if q.GuildID() != 1 || q.VoiceChannelID() != 2 || q.TextChannelID() != 3 {
		t.Error("expected IDs to be stored")
	}
	if q.Status() != StatusIdle {
		t.Errorf("expected status idle, got %v", q.Status())
	}
	if !q.Loop() {
		t.Error("expected loop enabled")
	}
	if q.ShuffleMode() {
		t.Error("expected shuffle mode disabled")
	}
	if q.Session() != nil {
		t.Error("expected no session before attach")
	}
}

func TestGuildQueue_CompleteHead(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		loop     bool
		shuffle  bool
		random   []int
		expected []string
		popped   string
	}{
		{
			name:     "loop off discards head",
			ids:      []string{"a", "b", "c"},
			expected: []string{"b", "c"},
			popped:   "a",
		},
		{
			name:     "loop on re-appends head",
			ids:      []string{"a", "b", "c"},
			loop:     true,
			expected: []string{"b", "c", "a"},
			popped:   "a",
		},
		{
			name:     "single track loop replays it",
			ids:      []string{"a"},
			loop:     true,
			expected: []string{"a"},
			popped:   "a",
		},
		{
			name:     "shuffle moves picked track to the front",
			ids:      []string{"a", "b", "c", "d"},
			shuffle:  true,
			random:   []int{2},
			expected: []string{"d", "b", "c"},
			popped:   "a",
		},
		{
			name:     "shuffle considers the loop reinserted head",
			ids:      []string{"a", "b", "c"},
			loop:     true,
			shuffle:  true,
			random:   []int{2},
			expected: []string{"a", "b", "c"},
			popped:   "a",
		},
		{
			name:     "last track empties queue",
			ids:      []string{"a"},
			expected: []string{},
			popped:   "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQueue(tt.loop, tt.ids...)
			if tt.shuffle {
				q.ToggleShuffleMode()
			}

			popped, ok := q.CompleteHead(&fixedRandom{values: tt.random})
			if !ok {
				t.Fatal("expected a track to be popped")
			}
			if string(popped.ID) != tt.popped {
				t.Errorf("expected popped %q, got %q", tt.popped, popped.ID)
			}
			if got := idsOf(q); !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestGuildQueue_CompleteHead_Empty(t *testing.T) {
	q := newTestQueue(true)

	if _, ok := q.CompleteHead(&fixedRandom{}); ok {
		t.Error("expected nothing to pop from empty queue")
	}
}

func TestGuildQueue_CompleteHead_LengthProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	withoutLoop := newTestQueue(false, "a", "b", "c", "d", "e")
	for want := 4; want >= 0; want-- {
		withoutLoop.CompleteHead(rng)
		if withoutLoop.Len() != want {
			t.Fatalf("expected length %d, got %d", want, withoutLoop.Len())
		}
	}

	withLoop := newTestQueue(true, "a", "b", "c", "d", "e")
	withLoop.ToggleShuffleMode()
	for range 20 {
		withLoop.CompleteHead(rng)
		got := idsOf(withLoop)
		slices.Sort(got)
		if !slices.Equal(got, []string{"a", "b", "c", "d", "e"}) {
			t.Fatalf("expected a permutation of the original tracks, got %v", got)
		}
	}
}

func TestGuildQueue_DropHead_IgnoresLoop(t *testing.T) {
	q := newTestQueue(true, "a", "b")

	dropped, ok := q.DropHead()
	if !ok || dropped.ID != "a" {
		t.Fatalf("expected to drop a, got %q", dropped.ID)
	}
	if got := idsOf(q); !slices.Equal(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}
}

func TestGuildQueue_ShuffleUpcoming_KeepsHead(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for range 50 {
		q := newTestQueue(false, "a", "b", "c", "d", "e", "f")
		q.Paginate(1)

		q.ShuffleUpcoming(rng)

		head, _ := q.Head()
		if head.ID != "a" {
			t.Fatalf("expected head a, got %q", head.ID)
		}
		got := idsOf(q)
		slices.Sort(got)
		if !slices.Equal(got, []string{"a", "b", "c", "d", "e", "f"}) {
			t.Fatalf("expected a permutation, got %v", got)
		}
		if q.CurrentPage() != 0 {
			t.Fatalf("expected page reset, got %d", q.CurrentPage())
		}
	}
}

func TestGuildQueue_Jump(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		index    int
		expected []string
		target   string
		wantErr  bool
	}{
		{
			name:     "jump to second upcoming",
			ids:      []string{"a", "b", "c", "d"},
			index:    2,
			expected: []string{"a", "c", "d", "b"},
			target:   "c",
		},
		{
			name:     "jump to next is a no-op reorder",
			ids:      []string{"a", "b", "c"},
			index:    1,
			expected: []string{"a", "b", "c"},
			target:   "b",
		},
		{
			name:     "jump to last",
			ids:      []string{"a", "b", "c", "d"},
			index:    3,
			expected: []string{"a", "d", "b", "c"},
			target:   "d",
		},
		{
			name:     "zero index",
			ids:      []string{"a", "b", "c"},
			index:    0,
			expected: []string{"a", "b", "c"},
			wantErr:  true,
		},
		{
			name:     "negative index",
			ids:      []string{"a", "b", "c"},
			index:    -1,
			expected: []string{"a", "b", "c"},
			wantErr:  true,
		},
		{
			name:     "index equal to length",
			ids:      []string{"a", "b", "c"},
			index:    3,
			expected: []string{"a", "b", "c"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQueue(false, tt.ids...)

			target, err := q.Jump(tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidIndex) {
					t.Errorf("expected ErrInvalidIndex, got %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(target.ID) != tt.target {
					t.Errorf("expected target %q, got %q", tt.target, target.ID)
				}
			}
			if got := idsOf(q); !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestGuildQueue_JumpThenComplete(t *testing.T) {
	q := newTestQueue(false, "a", "b", "c", "d")

	if _, err := q.Jump(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.CompleteHead(&fixedRandom{})

	if got := idsOf(q); !slices.Equal(got, []string{"c", "d", "b"}) {
		t.Errorf("expected [c d b], got %v", got)
	}
}

func TestGuildQueue_Previous(t *testing.T) {
	q := newTestQueue(false, "a", "b", "c")

	moved, ok := q.Previous()
	if !ok || moved.ID != "c" {
		t.Fatalf("expected c moved to head, got %q", moved.ID)
	}
	if got := idsOf(q); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("expected [c a b], got %v", got)
	}

	single := newTestQueue(false, "a")
	if _, ok := single.Previous(); ok {
		t.Error("expected previous to be refused with a single track")
	}
}

func TestGuildQueue_Paginate(t *testing.T) {
	ids := make([]string, 0, 26)
	for i := range 26 {
		ids = append(ids, string(rune('a'+i)))
	}

	tests := []struct {
		name     string
		ids      []string
		moves    []int
		expected int
		pages    int
	}{
		{name: "empty queue", ids: nil, moves: []int{1}, expected: 0, pages: 1},
		{name: "single track", ids: ids[:1], moves: []int{1, 1}, expected: 0, pages: 1},
		{name: "exactly one page", ids: ids[:11], moves: []int{1}, expected: 0, pages: 1},
		{name: "second page", ids: ids[:12], moves: []int{1}, expected: 1, pages: 2},
		{name: "clamped at end", ids: ids, moves: []int{1, 1, 1, 1}, expected: 2, pages: 3},
		{name: "clamped at start", ids: ids, moves: []int{-1, -1}, expected: 0, pages: 3},
		{name: "forward and back", ids: ids, moves: []int{1, 1, -1}, expected: 1, pages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQueue(false, tt.ids...)
			for _, m := range tt.moves {
				q.Paginate(m)
				if p := q.CurrentPage(); p < 0 || p > q.TotalPages()-1 {
					t.Fatalf("page %d outside [0, %d]", p, q.TotalPages()-1)
				}
			}
			if q.CurrentPage() != tt.expected {
				t.Errorf("expected page %d, got %d", tt.expected, q.CurrentPage())
			}
			if q.TotalPages() != tt.pages {
				t.Errorf("expected %d pages, got %d", tt.pages, q.TotalPages())
			}
		})
	}
}

func TestGuildQueue_PageClampedWhenQueueShrinks(t *testing.T) {
	ids := make([]string, 0, 12)
	for i := range 12 {
		ids = append(ids, string(rune('a'+i)))
	}
	q := newTestQueue(false, ids...)
	q.Paginate(1)

	q.DropHead()

	if q.CurrentPage() != 0 {
		t.Errorf("expected page clamped to 0, got %d", q.CurrentPage())
	}
}

func TestGuildQueue_ConsumeIdle(t *testing.T) {
	q := newTestQueue(false, "a")
	q.BeginLoading()
	q.MarkPlaying("ref-a")

	if q.ConsumeIdle("ref-other") {
		t.Error("expected mismatched ref to be ignored")
	}
	if !q.ConsumeIdle("ref-a") {
		t.Fatal("expected armed ref to be consumed")
	}
	if q.Status() != StatusIdle {
		t.Errorf("expected idle after consume, got %v", q.Status())
	}
	if q.ConsumeIdle("ref-a") {
		t.Error("expected second notification for the same play to be ignored")
	}
}

func TestGuildQueue_ConsumeIdle_WhilePaused(t *testing.T) {
	q := newTestQueue(false, "a")
	q.MarkPlaying("ref-a")
	if !q.MarkPaused() {
		t.Fatal("expected pause to succeed")
	}

	if !q.ConsumeIdle("ref-a") {
		t.Error("expected paused track to accept its idle notification")
	}
}

func TestGuildQueue_PauseResume(t *testing.T) {
	q := newTestQueue(false, "a")

	if q.MarkPaused() {
		t.Error("expected pause to fail while idle")
	}
	q.MarkPlaying("ref")
	if !q.MarkPaused() || q.Status() != StatusPaused {
		t.Error("expected pause from playing")
	}
	if q.MarkPaused() {
		t.Error("expected double pause to fail")
	}
	if !q.MarkResumed() || q.Status() != StatusPlaying {
		t.Error("expected resume from paused")
	}
}

func TestGuildQueue_Draining(t *testing.T) {
	q := newTestQueue(false)

	first := q.BeginDraining()
	if !q.IsDrainingAt(first) {
		t.Error("expected draining at first generation")
	}

	q.Append(tracksOf("a")...)
	q.BeginLoading()
	if q.IsDrainingAt(first) {
		t.Error("expected loading to cancel draining")
	}

	second := q.BeginDraining()
	if second == first {
		t.Error("expected a new generation")
	}
	if q.IsDrainingAt(first) {
		t.Error("expected stale generation to be rejected")
	}
}

func TestGuildQueue_Clone_IsDetached(t *testing.T) {
	q := newTestQueue(false, "a", "b")
	q.SetPanel(&PanelMessage{ChannelID: 3, MessageID: 4})

	c := q.Clone()
	c.Append(tracksOf("c")...)
	c.SetPanel(nil)

	if q.Len() != 2 {
		t.Errorf("expected original length 2, got %d", q.Len())
	}
	if q.Panel() == nil {
		t.Error("expected original panel to remain")
	}
}

func TestGuildQueue_ViewPage(t *testing.T) {
	ids := make([]string, 0, 30)
	for i := range 30 {
		ids = append(ids, string(rune('A'+i)))
	}
	q := newTestQueue(true, ids...)
	q.Paginate(2)

	view := q.View()

	if view.NowPlaying == nil || view.NowPlaying.ID != "A" {
		t.Fatal("expected head as now playing")
	}
	if view.PageIndex != 2 || view.TotalPages != 3 {
		t.Errorf("expected page 2 of 3, got %d of %d", view.PageIndex, view.TotalPages)
	}
	if len(view.Page) != 9 {
		t.Errorf("expected 9 tracks on last page, got %d", len(view.Page))
	}
	if view.PageStart != 21 {
		t.Errorf("expected page to start at queue index 21, got %d", view.PageStart)
	}
	if len(view.JumpOptions) != MaxJumpOptions {
		t.Errorf("expected %d jump options, got %d", MaxJumpOptions, len(view.JumpOptions))
	}
	if !view.Loop || view.TotalTracks != 30 {
		t.Error("expected loop flag and total count")
	}
	if !view.CanSkip() {
		t.Error("expected skip controls enabled")
	}
}

func TestGuildQueue_ViewPage_Empty(t *testing.T) {
	q := newTestQueue(false)
	q.BeginDraining()

	view := q.View()

	if view.NowPlaying != nil {
		t.Error("expected nothing playing")
	}
	if !view.Draining {
		t.Error("expected draining flag")
	}
	if view.CanSkip() {
		t.Error("expected skip controls disabled")
	}
	if len(view.Page) != 0 || len(view.JumpOptions) != 0 {
		t.Error("expected empty page and jump options")
	}
}
