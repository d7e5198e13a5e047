// Package rest exposes a read-only HTTP view of the guild queues.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gin-gonic/gin"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

const shutdownTimeout = 5 * time.Second

// QueueReader is the part of the queue registry the status API reads from.
type QueueReader interface {
	Get(guildID snowflake.ID) (*domain.GuildQueue, bool)
	GuildIDs() []snowflake.ID
}

type trackResponse struct {
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	URI         string `json:"uri,omitempty"`
	Duration    string `json:"duration"`
	RequestedBy string `json:"requested_by,omitempty"`
}

type queueResponse struct {
	GuildID     string          `json:"guild_id"`
	NowPlaying  *trackResponse  `json:"now_playing"`
	Upcoming    []trackResponse `json:"upcoming"`
	Page        int             `json:"page"`
	TotalPages  int             `json:"total_pages"`
	TotalTracks int             `json:"total_tracks"`
	Loop        bool            `json:"loop"`
	Shuffle     bool            `json:"shuffle"`
	Paused      bool            `json:"paused"`
}

func newTrackResponse(t domain.Track) trackResponse {
	return trackResponse{
		Title:       t.Title,
		Artist:      t.Artist,
		URI:         t.URI,
		Duration:    t.FormattedDuration(),
		RequestedBy: t.RequesterName,
	}
}

func newQueueResponse(view domain.PanelView) queueResponse {
	resp := queueResponse{
		GuildID:     view.GuildID.String(),
		Upcoming:    make([]trackResponse, 0, len(view.Page)),
		Page:        view.PageIndex + 1,
		TotalPages:  view.TotalPages,
		TotalTracks: view.TotalTracks,
		Loop:        view.Loop,
		Shuffle:     view.Shuffle,
		Paused:      view.Paused,
	}
	if view.NowPlaying != nil {
		np := newTrackResponse(*view.NowPlaying)
		resp.NowPlaying = &np
	}
	for _, t := range view.Page {
		resp.Upcoming = append(resp.Upcoming, newTrackResponse(t))
	}
	return resp
}

// NewRouter builds the status API routes.
func NewRouter(queues QueueReader) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/guilds", func(c *gin.Context) {
		ids := queues.GuildIDs()
		slices.Sort(ids)

		guilds := make([]string, len(ids))
		for i, id := range ids {
			guilds[i] = id.String()
		}
		c.JSON(http.StatusOK, gin.H{"guilds": guilds, "count": len(guilds)})
	})

	r.GET("/guilds/:id/queue", func(c *gin.Context) {
		guildID, err := snowflake.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guild ID"})
			return
		}

		page := 0
		if p := c.Query("page"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
				return
			}
			page = n - 1
		}

		queue, ok := queues.Get(guildID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no queue for guild"})
			return
		}
		c.JSON(http.StatusOK, newQueueResponse(queue.ViewPage(page)))
	})

	return r
}

// Server serves the status API.
type Server struct {
	server *http.Server
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, queues QueueReader) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(queues),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		slog.Info("status API listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("status API stopped", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting briefly for in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
