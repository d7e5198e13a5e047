package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

const (
	testGuildID        = snowflake.ID(1)
	testVoiceChannelID = snowflake.ID(2)
	testTextChannelID  = snowflake.ID(3)
	testUserID         = snowflake.ID(100)
)

func mockTrack(id string) domain.Track {
	return domain.Track{
		ID:          domain.TrackID(id),
		Encoded:     "encoded-" + id,
		Title:       "Track " + id,
		Artist:      "Artist",
		URI:         "https://www.youtube.com/watch?v=" + id,
		Duration:    3 * time.Minute,
		RequesterID: testUserID,
	}
}

func mockTracks(ids ...string) []domain.Track {
	tracks := make([]domain.Track, len(ids))
	for i, id := range ids {
		tracks[i] = mockTrack(id)
	}
	return tracks
}

func trackIDs(tracks []domain.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = string(t.ID)
	}
	return ids
}

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

type mockRegistry struct {
	mu     sync.Mutex
	queues map[snowflake.ID]*domain.GuildQueue
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{queues: make(map[snowflake.ID]*domain.GuildQueue)}
}

func (m *mockRegistry) Get(guildID snowflake.ID) (*domain.GuildQueue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[guildID]
	if !ok {
		return nil, false
	}
	return q.Clone(), true
}

func (m *mockRegistry) Create(queue *domain.GuildQueue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queues[queue.GuildID()]; ok {
		return domain.ErrQueueExists
	}
	m.queues[queue.GuildID()] = queue
	return nil
}

func (m *mockRegistry) Update(guildID snowflake.ID, fn func(q *domain.GuildQueue) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[guildID]
	if !ok {
		return domain.ErrQueueNotFound
	}
	return fn(q)
}

func (m *mockRegistry) Delete(
	guildID snowflake.ID,
	keep func(q *domain.GuildQueue) bool,
) (*domain.GuildQueue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[guildID]
	if !ok || (keep != nil && keep(q)) {
		return nil, false
	}
	delete(m.queues, guildID)
	return q, true
}

func (m *mockRegistry) GuildIDs() []snowflake.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]snowflake.ID, 0, len(m.queues))
	for id := range m.queues {
		ids = append(ids, id)
	}
	return ids
}

// seed stores a queue that already owns a session, as if it had been created by a play request.
func (m *mockRegistry) seed(session domain.AudioSession, ids ...string) *domain.GuildQueue {
	q := domain.NewGuildQueue(testGuildID, testVoiceChannelID, testTextChannelID, mockTracks(ids...), true)
	if session != nil {
		q.AttachSession(session)
	}
	m.queues[testGuildID] = q
	return q
}

// live returns the stored queue without copying, for assertions.
func (m *mockRegistry) live(guildID snowflake.ID) *domain.GuildQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queues[guildID]
}

type mockSession struct {
	mu        sync.Mutex
	played    []domain.Stream
	stops     int
	pauses    int
	resumes   int
	destroys  int
	playErr   error
	stopErr   error
	pauseErr  error
	resumeErr error
}

func (m *mockSession) Play(_ context.Context, stream domain.Stream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, stream)
	return nil
}

func (m *mockSession) Pause(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	return m.pauseErr
}

func (m *mockSession) Resume(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumes++
	return m.resumeErr
}

func (m *mockSession) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return m.stopErr
}

func (m *mockSession) Destroy(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroys++
	return nil
}

func (m *mockSession) playedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.played))
	for i, s := range m.played {
		ids[i] = string(s.Track.ID)
	}
	return ids
}

func (m *mockSession) lastRef() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.played) == 0 {
		return ""
	}
	return m.played[len(m.played)-1].Ref
}

type mockStreamResolver struct {
	failing map[domain.TrackID]bool
	calls   int

	// onResolve runs inside each lookup, while the guild's advance is in flight.
	onResolve func(track domain.Track)
}

func (m *mockStreamResolver) ResolveStream(_ context.Context, track domain.Track) (domain.Stream, error) {
	m.calls++
	if m.onResolve != nil {
		m.onResolve(track)
	}
	if m.failing[track.ID] {
		return domain.Stream{}, errors.New("stream unavailable")
	}
	return domain.Stream{Ref: "ref-" + string(track.ID), Track: track}, nil
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) skipped() []domain.TrackSkippedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TrackSkippedEvent
	for _, e := range m.events {
		if s, ok := e.(domain.TrackSkippedEvent); ok {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockEventPublisher) destroyed() []domain.QueueDestroyedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.QueueDestroyedEvent
	for _, e := range m.events {
		if d, ok := e.(domain.QueueDestroyedEvent); ok {
			out = append(out, d)
		}
	}
	return out
}

type mockTimer struct{}

func (mockTimer) Stop() bool { return true }

// mockScheduler records scheduled functions instead of running them.
type mockScheduler struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (m *mockScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, f)
	m.delays = append(m.delays, d)
	return mockTimer{}
}

// fireAll runs every pending function, as if their delays had elapsed.
func (m *mockScheduler) fireAll() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, f := range pending {
		f()
	}
}

type mockPanelPublisher struct {
	mu        sync.Mutex
	published []domain.PanelView
	deleted   []domain.PanelMessage
	nextID    snowflake.ID
	err       error
}

func (m *mockPanelPublisher) PublishPanel(
	_ context.Context,
	channelID snowflake.ID,
	existing *domain.PanelMessage,
	view domain.PanelView,
) (domain.PanelMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.PanelMessage{}, m.err
	}
	m.published = append(m.published, view)
	if existing != nil {
		return *existing, nil
	}
	m.nextID++
	return domain.PanelMessage{ChannelID: channelID, MessageID: 1000 + m.nextID}, nil
}

func (m *mockPanelPublisher) DeletePanel(_ context.Context, panel domain.PanelMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, panel)
	return nil
}

func (m *mockPanelPublisher) lastView() (domain.PanelView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.published) == 0 {
		return domain.PanelView{}, false
	}
	return m.published[len(m.published)-1], true
}

type mockActor struct {
	guildID        snowflake.ID
	channelID      snowflake.ID
	member         ports.Member
	voiceChannelID snowflake.ID
	voiceErr       error
	replies        []string
}

func newMockActor() *mockActor {
	return &mockActor{
		guildID:        testGuildID,
		channelID:      testTextChannelID,
		member:         ports.Member{ID: testUserID, DisplayName: "tester"},
		voiceChannelID: testVoiceChannelID,
	}
}

func (m *mockActor) GuildID() snowflake.ID      { return m.guildID }
func (m *mockActor) ChannelID() snowflake.ID    { return m.channelID }
func (m *mockActor) ActingMember() ports.Member { return m.member }
func (m *mockActor) VoiceChannelOf(_ ports.Member) (snowflake.ID, error) {
	return m.voiceChannelID, m.voiceErr
}

func (m *mockActor) Reply(_ context.Context, content string) error {
	m.replies = append(m.replies, content)
	return nil
}

type mockQueryResolver struct {
	result *ports.ResolveResult
	err    error
	calls  int
}

func (m *mockQueryResolver) ResolveQuery(
	_ context.Context,
	_ *domain.SearchQuery,
) (*ports.ResolveResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockSessionOpener struct {
	session *mockSession
	err     error
	opened  int
}

func (m *mockSessionOpener) Open(_ context.Context, _, _ snowflake.ID) (domain.AudioSession, error) {
	m.opened++
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

type mockVoiceStateProvider struct {
	canSpeak bool
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, _ snowflake.ID) (snowflake.ID, error) {
	return testVoiceChannelID, m.err
}

func (m *mockVoiceStateProvider) CanConnectAndSpeak(_, _ snowflake.ID) (bool, error) {
	return m.canSpeak, m.err
}

type mockTrackSearcher struct {
	tracks []domain.Track
	err    error
	limit  int
}

func (m *mockTrackSearcher) SearchTracks(
	_ context.Context,
	_ *domain.SearchQuery,
	limit int,
) ([]domain.Track, error) {
	m.limit = limit
	return m.tracks, m.err
}

// fixture wires a controller and actions around mocks.
type fixture struct {
	registry  *mockRegistry
	session   *mockSession
	streams   *mockStreamResolver
	publisher *mockEventPublisher
	scheduler *mockScheduler
	panels    *mockPanelPublisher
	rng       *fixedRandom

	sync       *PanelSync
	controller *PlaybackController
	actions    *QueueActions
}

func newFixture() *fixture {
	f := &fixture{
		registry:  newMockRegistry(),
		session:   &mockSession{},
		streams:   &mockStreamResolver{failing: map[domain.TrackID]bool{}},
		publisher: &mockEventPublisher{},
		scheduler: &mockScheduler{},
		panels:    &mockPanelPublisher{},
		rng:       &fixedRandom{},
	}
	f.sync = NewPanelSync(f.registry, f.panels, 0)
	f.controller = NewPlaybackController(
		f.registry,
		f.streams,
		f.sync,
		f.publisher,
		f.scheduler,
		f.rng,
		time.Minute,
	)
	f.actions = NewQueueActions(f.registry, f.controller, f.sync, f.rng)
	return f
}

// finish simulates the audio node reporting the current stream as finished.
func (f *fixture) finish(ctx context.Context) {
	f.controller.HandleTrackEnded(ctx, domain.TrackEndedEvent{
		GuildID:   testGuildID,
		StreamRef: f.session.lastRef(),
		Reason:    domain.TrackEndFinished,
	})
}

func (f *fixture) queueIDs() []string {
	q, ok := f.registry.Get(testGuildID)
	if !ok {
		return nil
	}
	return trackIDs(q.Tracks())
}
