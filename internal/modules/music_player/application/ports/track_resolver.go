package ports

import (
	"context"
	"errors"

	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ErrNoMatches is returned by resolvers when a lookup succeeded but found nothing.
var ErrNoMatches = errors.New("no matches")

// ResolveResult is the outcome of resolving a play request.
type ResolveResult struct {
	Kind         domain.QueryKind
	PlaylistName string // only set for playlists
	Tracks       []domain.Track
}

// QueryResolver turns a classified query into tracks.
// Playlists expand to many tracks; single and search queries yield exactly one.
type QueryResolver interface {
	ResolveQuery(ctx context.Context, query *domain.SearchQuery) (*ResolveResult, error)
}

// TrackSearcher returns several candidates for free text, used for autocomplete.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query *domain.SearchQuery, limit int) ([]domain.Track, error)
}

// StreamResolver produces a playable stream for a track right before playback.
type StreamResolver interface {
	ResolveStream(ctx context.Context, track domain.Track) (domain.Stream, error)
}
