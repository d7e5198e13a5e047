package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

// colorInfo is the accent color of notices and the panel.
const colorInfo = 0x0099ff

// Notifier sends plain notices to Discord channels.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{
		session: session,
	}
}

// Notify sends a short embed notice to the channel.
func (n *Notifier) Notify(ctx context.Context, channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorInfo,
	}

	_, err := n.session.ChannelMessageSendEmbed(
		channelID.String(),
		embed,
		discordgo.WithContext(ctx),
	)
	return err
}

// thumbnailResolver finds the best YouTube thumbnail for a video, remembering the answer.
type thumbnailResolver struct {
	httpClient *http.Client
	baseURL    string

	mu    sync.Mutex
	cache map[string]string
}

// maxCachedThumbnails bounds the cache; it is reset when full.
const maxCachedThumbnails = 1024

func newThumbnailResolver() *thumbnailResolver {
	return &thumbnailResolver{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: "https://img.youtube.com/vi",
		cache:   make(map[string]string),
	}
}

// resolve returns the highest quality thumbnail available for the video, or fallbackURL.
func (t *thumbnailResolver) resolve(ctx context.Context, videoID, fallbackURL string) string {
	if videoID == "" {
		return fallbackURL
	}

	t.mu.Lock()
	cached, ok := t.cache[videoID]
	t.mu.Unlock()
	if ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result := fallbackURL
	for _, quality := range []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"} {
		url := fmt.Sprintf("%s/%s/%s.jpg", t.baseURL, videoID, quality)
		if t.urlExists(ctx, url) {
			result = url
			break
		}
	}

	// A cancelled probe says nothing about the video.
	if ctx.Err() == nil {
		t.mu.Lock()
		if len(t.cache) >= maxCachedThumbnails {
			clear(t.cache)
		}
		t.cache[videoID] = result
		t.mu.Unlock()
	}

	return result
}

// urlExists checks if a URL returns a successful response using a HEAD request.
func (t *thumbnailResolver) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)
