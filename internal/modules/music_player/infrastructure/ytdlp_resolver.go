package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

const (
	youtubeWatchURL      = "https://www.youtube.com/watch?v="
	youtubeMusicWatchURL = "https://music.youtube.com/watch?v="

	// flatEntryFormat is the yt-dlp print template parsed by parseFlatEntries.
	flatEntryFormat = "%(url)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(playlist_title)s"
	// metadataFormat is the yt-dlp print template parsed by parseMetadata.
	metadataFormat = "%(webpage_url)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(thumbnail)s\t%(is_live)s"
)

// YtdlpConfig configures the yt-dlp based resolver.
type YtdlpConfig struct {
	Source        domain.SearchSource
	PlaylistLimit int
	Proxy         string
}

// YtdlpResolver resolves queries without Lavalink: yt-dlp for URLs, the YouTube and
// YouTube Music scrapers for free text. Tracks it returns carry no encoded stream;
// Lavalink loads them from their URI right before playback.
type YtdlpResolver struct {
	config YtdlpConfig
}

// NewYtdlpResolver creates a new YtdlpResolver.
func NewYtdlpResolver(config YtdlpConfig) *YtdlpResolver {
	if config.PlaylistLimit <= 0 {
		config.PlaylistLimit = 200
	}
	return &YtdlpResolver{config: config}
}

func (r *YtdlpResolver) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()

	if r.config.Proxy != "" {
		cmd.Proxy(r.config.Proxy)
	}
	return cmd
}

// ResolveQuery resolves a search to its best match, a URL to its metadata and
// a playlist URL to its entries.
func (r *YtdlpResolver) ResolveQuery(
	ctx context.Context,
	query *domain.SearchQuery,
) (*ports.ResolveResult, error) {
	switch query.Kind {
	case domain.QueryKindPlaylist:
		return r.resolvePlaylist(ctx, query.Query)
	case domain.QueryKindSingle:
		track, err := r.resolveSingle(ctx, query.Query)
		if err != nil {
			return nil, err
		}
		return &ports.ResolveResult{Kind: domain.QueryKindSingle, Tracks: []domain.Track{track}}, nil
	default:
		tracks, err := r.SearchTracks(ctx, query, 1)
		if err != nil {
			return nil, err
		}
		if len(tracks) == 0 {
			return nil, ports.ErrNoMatches
		}
		return &ports.ResolveResult{Kind: domain.QueryKindSearch, Tracks: tracks[:1]}, nil
	}
}

func (r *YtdlpResolver) resolveSingle(ctx context.Context, rawURL string) (domain.Track, error) {
	res, err := r.command().
		Print(metadataFormat).
		Run(ctx, "--skip-download", "--no-playlist", normalizeYouTubeURL(rawURL))
	if err != nil {
		return domain.Track{}, fmt.Errorf("yt-dlp metadata failed: %w", err)
	}

	track, ok := parseMetadata(res.Stdout)
	if !ok {
		return domain.Track{}, ports.ErrNoMatches
	}
	return track, nil
}

func (r *YtdlpResolver) resolvePlaylist(ctx context.Context, rawURL string) (*ports.ResolveResult, error) {
	res, err := r.command().
		FlatPlaylist().
		Print(flatEntryFormat).
		PlaylistItems(fmt.Sprintf("1-%d", r.config.PlaylistLimit)).
		Run(ctx, "--yes-playlist", normalizeYouTubeURL(rawURL))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp playlist failed: %w", err)
	}

	name, tracks := parseFlatEntries(res.Stdout)
	if len(tracks) == 0 {
		return nil, ports.ErrNoMatches
	}

	slog.Debug("resolved playlist with yt-dlp", "playlist", name, "tracks", len(tracks))

	return &ports.ResolveResult{
		Kind:         domain.QueryKindPlaylist,
		PlaylistName: name,
		Tracks:       tracks,
	}, nil
}

// SearchTracks searches the configured source for free text.
func (r *YtdlpResolver) SearchTracks(
	ctx context.Context,
	query *domain.SearchQuery,
	limit int,
) ([]domain.Track, error) {
	if query.Source == domain.SourceYouTubeMusic {
		return searchYouTubeMusic(query.Query, limit)
	}
	return searchYouTube(ctx, query.Query, limit)
}

func searchYouTube(ctx context.Context, q string, limit int) ([]domain.Track, error) {
	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	tracks := make([]domain.Track, 0, min(limit, len(res.Results)))
	for _, v := range res.Results {
		if len(tracks) == limit {
			break
		}
		if v.VideoID == "" {
			continue
		}
		tracks = append(tracks, domain.Track{
			ID:         domain.NewTrackID(),
			Title:      v.Title,
			URI:        youtubeWatchURL + v.VideoID,
			ArtworkURL: youtubeThumbnailURL(v.VideoID),
		})
	}
	return tracks, nil
}

func searchYouTubeMusic(q string, limit int) ([]domain.Track, error) {
	s := ytmusic.TrackSearch(q)
	res, err := s.Next()
	if err != nil {
		return nil, fmt.Errorf("youtube music search failed: %w", err)
	}

	tracks := make([]domain.Track, 0, min(limit, len(res.Tracks)))
	for _, v := range res.Tracks {
		if len(tracks) == limit {
			break
		}
		if v.VideoID == "" {
			continue
		}
		artist := ""
		if len(v.Artists) > 0 {
			artist = v.Artists[0].Name
		}
		tracks = append(tracks, domain.Track{
			ID:         domain.NewTrackID(),
			Title:      v.Title,
			Artist:     artist,
			URI:        youtubeMusicWatchURL + v.VideoID,
			ArtworkURL: youtubeThumbnailURL(v.VideoID),
		})
	}
	return tracks, nil
}

// parseFlatEntries parses flat playlist output printed with flatEntryFormat.
func parseFlatEntries(stdout string) (string, []domain.Track) {
	var (
		name   string
		tracks []domain.Track
	)
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(line, "\t")
		if len(ps) < 4 || ps[0] == "" || ps[0] == "NA" {
			continue
		}
		if name == "" && len(ps) >= 5 && ps[4] != "NA" {
			name = ps[4]
		}
		tracks = append(tracks, domain.Track{
			ID:         domain.NewTrackID(),
			Title:      valueOrEmpty(ps[1]),
			Artist:     valueOrEmpty(ps[2]),
			Duration:   parseSeconds(ps[3]),
			URI:        ps[0],
			ArtworkURL: youtubeThumbnailURL(youtubeVideoID(ps[0])),
		})
	}
	return name, tracks
}

// parseMetadata parses single video output printed with metadataFormat.
func parseMetadata(stdout string) (domain.Track, bool) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(line, "\t")
		if len(ps) < 4 || ps[0] == "" || ps[0] == "NA" {
			continue
		}
		track := domain.Track{
			ID:       domain.NewTrackID(),
			Title:    valueOrEmpty(ps[1]),
			Artist:   valueOrEmpty(ps[2]),
			Duration: parseSeconds(ps[3]),
			URI:      ps[0],
		}
		if len(ps) >= 5 {
			track.ArtworkURL = valueOrEmpty(ps[4])
		}
		if len(ps) >= 6 {
			track.IsStream = ps[5] == "True"
		}
		return track, true
	}
	return domain.Track{}, false
}

// parseSeconds parses yt-dlp's duration field, which may be fractional or NA.
func parseSeconds(s string) time.Duration {
	d, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0
	}
	return d.Round(time.Second)
}

func valueOrEmpty(s string) string {
	if s == "NA" {
		return ""
	}
	return s
}

// normalizeYouTubeURL points YouTube Music links at the regular site, which yt-dlp extracts faster.
func normalizeYouTubeURL(u string) string {
	return strings.Replace(u, "music.youtube.com", "www.youtube.com", 1)
}

// youtubeVideoID extracts the video ID from watch and short links.
func youtubeVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		return strings.TrimPrefix(u.Path, "/")
	case "youtube.com", "music.youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/shorts/") {
			return strings.TrimPrefix(u.Path, "/shorts/")
		}
		return u.Query().Get("v")
	}
	return ""
}

func youtubeThumbnailURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}

// errYtdlpUnavailable is returned by EnsureYtdlp when no binary can be found or installed.
var errYtdlpUnavailable = errors.New("yt-dlp is not available")

// EnsureYtdlp makes sure a yt-dlp binary is available, downloading one if needed.
func EnsureYtdlp(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("%w: %w", errYtdlpUnavailable, err)
	}
	return nil
}

// Ensure YtdlpResolver implements port interfaces.
var (
	_ ports.QueryResolver = (*YtdlpResolver)(nil)
	_ ports.TrackSearcher = (*YtdlpResolver)(nil)
)
