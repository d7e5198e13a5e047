package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

type fakeQueues struct {
	queues map[snowflake.ID]*domain.GuildQueue
}

func (f *fakeQueues) Get(guildID snowflake.ID) (*domain.GuildQueue, bool) {
	q, ok := f.queues[guildID]
	return q, ok
}

func (f *fakeQueues) GuildIDs() []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(f.queues))
	for id := range f.queues {
		ids = append(ids, id)
	}
	return ids
}

func newFakeQueues() *fakeQueues {
	tracks := make([]domain.Track, 12)
	for i := range tracks {
		tracks[i] = domain.Track{
			ID:            domain.TrackID(trackKey(i)),
			Title:         "Track " + trackKey(i),
			URI:           "https://www.youtube.com/watch?v=" + trackKey(i),
			Duration:      3 * time.Minute,
			RequesterName: "tester",
		}
	}
	return &fakeQueues{queues: map[snowflake.ID]*domain.GuildQueue{
		20: domain.NewGuildQueue(20, 2, 3, tracks, true),
		10: domain.NewGuildQueue(10, 2, 3, tracks[:1], false),
	}}
}

func trackKey(i int) string {
	return string(rune('a' + i))
}

func get(t *testing.T, queues QueueReader, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	NewRouter(queues).ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := get(t, newFakeQueues(), "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestGuilds(t *testing.T) {
	w := get(t, newFakeQueues(), "/guilds")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Guilds []string `json:"guilds"`
		Count  int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Count != 2 || len(body.Guilds) != 2 {
		t.Fatalf("expected 2 guilds, got %+v", body)
	}
	if body.Guilds[0] != "10" || body.Guilds[1] != "20" {
		t.Errorf("expected sorted guild IDs, got %v", body.Guilds)
	}
}

func TestGuildQueue(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		wantCode     int
		wantUpcoming int
		wantPage     int
	}{
		{name: "first page", path: "/guilds/20/queue", wantCode: http.StatusOK, wantUpcoming: 10, wantPage: 1},
		{name: "second page", path: "/guilds/20/queue?page=2", wantCode: http.StatusOK, wantUpcoming: 1, wantPage: 2},
		{name: "page past the end is clamped", path: "/guilds/20/queue?page=9", wantCode: http.StatusOK, wantUpcoming: 1, wantPage: 2},
		{name: "single track", path: "/guilds/10/queue", wantCode: http.StatusOK, wantUpcoming: 0, wantPage: 1},
		{name: "unknown guild", path: "/guilds/30/queue", wantCode: http.StatusNotFound},
		{name: "invalid guild", path: "/guilds/abc/queue", wantCode: http.StatusBadRequest},
		{name: "invalid page", path: "/guilds/20/queue?page=0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, newFakeQueues(), tt.path)
			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var body queueResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if len(body.Upcoming) != tt.wantUpcoming {
				t.Errorf("expected %d upcoming tracks, got %d", tt.wantUpcoming, len(body.Upcoming))
			}
			if body.Page != tt.wantPage {
				t.Errorf("expected page %d, got %d", tt.wantPage, body.Page)
			}
			if body.NowPlaying == nil || body.NowPlaying.Title != "Track a" {
				t.Errorf("expected Track a to be playing, got %+v", body.NowPlaying)
			}
			if body.NowPlaying != nil && body.NowPlaying.Duration != "03:00" {
				t.Errorf("expected duration 03:00, got %q", body.NowPlaying.Duration)
			}
		})
	}
}
