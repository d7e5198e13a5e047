package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"github.com/sglre6355/jukebot/internal/modules/music_player/infrastructure"
)

const (
	testGuildID        snowflake.ID = 1
	testVoiceChannelID snowflake.ID = 2
	testTextChannelID  snowflake.ID = 3
	testUserID         snowflake.ID = 100
	testBotID          snowflake.ID = 999
)

func testTracks(titles ...string) []domain.Track {
	tracks := make([]domain.Track, len(titles))
	for i, title := range titles {
		tracks[i] = domain.Track{
			ID:      domain.TrackID(title),
			Encoded: "encoded-" + title,
			Title:   "Song " + title,
			URI:     "https://www.youtube.com/watch?v=" + title,
		}
	}
	return tracks
}

type fakeSession struct {
	mu      sync.Mutex
	played  []string
	stops   int
	pauses  int
	resumes int
}

func (s *fakeSession) Play(_ context.Context, stream domain.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, stream.Track.Title)
	return nil
}

func (s *fakeSession) Pause(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses++
	return nil
}

func (s *fakeSession) Resume(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes++
	return nil
}

func (s *fakeSession) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *fakeSession) Destroy(context.Context) error { return nil }

func (s *fakeSession) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type fakeStreams struct{}

func (fakeStreams) ResolveStream(_ context.Context, track domain.Track) (domain.Stream, error) {
	return domain.Stream{Ref: "ref-" + string(track.ID), Track: track}, nil
}

type fakeResolver struct {
	result *ports.ResolveResult
	err    error
}

func (r *fakeResolver) ResolveQuery(context.Context, *domain.SearchQuery) (*ports.ResolveResult, error) {
	return r.result, r.err
}

func (r *fakeResolver) SearchTracks(context.Context, *domain.SearchQuery, int) ([]domain.Track, error) {
	if r.result == nil {
		return nil, r.err
	}
	return r.result.Tracks, r.err
}

type fakeOpener struct {
	session *fakeSession
}

func (o *fakeOpener) Open(context.Context, snowflake.ID, snowflake.ID) (domain.AudioSession, error) {
	return o.session, nil
}

type fakeVoiceState struct {
	channelID snowflake.ID
}

func (v *fakeVoiceState) GetUserVoiceChannel(_, _ snowflake.ID) (snowflake.ID, error) {
	return v.channelID, nil
}

func (v *fakeVoiceState) CanConnectAndSpeak(_, _ snowflake.ID) (bool, error) {
	return true, nil
}

type fakePanels struct{}

func (fakePanels) PublishPanel(
	_ context.Context,
	channelID snowflake.ID,
	_ *domain.PanelMessage,
	_ domain.PanelView,
) (domain.PanelMessage, error) {
	return domain.PanelMessage{ChannelID: channelID, MessageID: 1000}, nil
}

func (fakePanels) DeletePanel(context.Context, domain.PanelMessage) error { return nil }

type fakePublisher struct{}

func (fakePublisher) Publish(domain.Event) error { return nil }

type fakeTimer struct{}

func (fakeTimer) Stop() bool { return true }

type fakeScheduler struct{}

func (fakeScheduler) AfterFunc(time.Duration, func()) ports.Timer { return fakeTimer{} }

// harness wires the real use cases to in-memory fakes.
type harness struct {
	registry     *infrastructure.MemoryRegistry
	session      *fakeSession
	resolver     *fakeResolver
	voiceState   *fakeVoiceState
	ingestion    *usecases.IngestionService
	actions      *usecases.QueueActions
	notification *usecases.NotificationChannelService
	voiceChannel *usecases.VoiceChannelService
	autocomplete *usecases.AutocompleteService
	commands     *musicCommands
}

func newHarness(tracks ...domain.Track) *harness {
	h := &harness{
		registry:   infrastructure.NewMemoryRegistry(),
		session:    &fakeSession{},
		resolver:   &fakeResolver{result: &ports.ResolveResult{Kind: domain.QueryKindSingle, Tracks: tracks}},
		voiceState: &fakeVoiceState{channelID: testVoiceChannelID},
	}

	rng := usecases.NewRandomSource()
	panels := usecases.NewPanelSync(h.registry, fakePanels{}, 0)
	controller := usecases.NewPlaybackController(
		h.registry,
		fakeStreams{},
		panels,
		fakePublisher{},
		fakeScheduler{},
		rng,
		time.Minute,
	)

	h.ingestion = usecases.NewIngestionService(
		h.registry,
		h.resolver,
		&fakeOpener{session: h.session},
		h.voiceState,
		controller,
		panels,
		rng,
		usecases.IngestionConfig{DefaultLoop: true},
	)
	h.actions = usecases.NewQueueActions(h.registry, controller, panels, rng)
	h.notification = usecases.NewNotificationChannelService(h.registry, panels)
	h.voiceChannel = usecases.NewVoiceChannelService(h.registry, controller)
	h.autocomplete = usecases.NewAutocompleteService(h.registry, h.resolver, domain.SourceYouTube)
	h.commands = &musicCommands{
		ingestion:    h.ingestion,
		actions:      h.actions,
		notification: h.notification,
	}
	return h
}

// startQueue plays the harness tracks as a playlist so the guild has a queue.
func (h *harness) startQueue() {
	h.resolver.result.Kind = domain.QueryKindPlaylist
	_, err := h.ingestion.RequestPlay(context.Background(), usecases.RequestPlayInput{
		Actor: newFakeActor(),
		Query: "https://www.youtube.com/playlist?list=PL1",
	})
	if err != nil {
		panic(err)
	}
}

// fakeActor records replies; it stands in for both message and interaction contexts.
type fakeActor struct {
	voiceChannelID snowflake.ID
	acks           []string
	replies        []string
	errors         []string
}

func newFakeActor() *fakeActor {
	return &fakeActor{voiceChannelID: testVoiceChannelID}
}

func (a *fakeActor) GuildID() snowflake.ID   { return testGuildID }
func (a *fakeActor) ChannelID() snowflake.ID { return testTextChannelID }
func (a *fakeActor) ActingMember() ports.Member {
	return ports.Member{ID: testUserID, DisplayName: "tester"}
}

func (a *fakeActor) VoiceChannelOf(ports.Member) (snowflake.ID, error) {
	return a.voiceChannelID, nil
}

func (a *fakeActor) Reply(_ context.Context, content string) error {
	a.replies = append(a.replies, content)
	return nil
}

func (a *fakeActor) ReplyError(_ context.Context, message string) error {
	a.errors = append(a.errors, message)
	return nil
}

func (a *fakeActor) Acknowledge(_ context.Context, content string) error {
	a.acks = append(a.acks, content)
	return nil
}

func guildMember() *discordgo.Member {
	return &discordgo.Member{
		Nick: "tester",
		User: &discordgo.User{ID: testUserID.String(), Username: "tester_user"},
	}
}

func commandInteraction(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   testGuildID.String(),
		ChannelID: testTextChannelID.String(),
		Member:    guildMember(),
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}}
}

func componentInteraction(customID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   testGuildID.String(),
		ChannelID: testTextChannelID.String(),
		Member:    guildMember(),
		Data: discordgo.MessageComponentInteractionData{
			CustomID: customID,
			Values:   values,
		},
	}}
}

func modalInteraction(customID, songNumber string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   testGuildID.String(),
		ChannelID: testTextChannelID.String(),
		Member:    guildMember(),
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: customID,
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{
						CustomID: string(domain.ControlSongNumber),
						Value:    songNumber,
					},
				}},
			},
		},
	}}
}
