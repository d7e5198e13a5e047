package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// pendingVoiceConnection tracks a join that is waiting for Discord's two voice events.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

func newPendingVoiceConnection() *pendingVoiceConnection {
	return &pendingVoiceConnection{ready: make(chan struct{})}
}

// onEvent marks an event as received and closes ready once both have arrived.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds VoiceStateUpdate and VoiceServerUpdate data until both are
// present, since Lavalink rejects a partial voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

// voiceUpdate is a complete voice state ready to be forwarded to Lavalink.
type voiceUpdate struct {
	channelID *snowflake.ID
	sessionID string
	token     string
	endpoint  string
}

// setVoiceState stores voice state data and reports whether both halves are present.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceServer
}

// setVoiceServer stores voice server data and reports whether both halves are present.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState
}

// take returns the buffered update and resets the buffer.
func (b *voiceEventBuffer) take() voiceUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()

	update := voiceUpdate{
		channelID: b.channelID,
		sessionID: b.sessionID,
		token:     b.token,
		endpoint:  b.endpoint,
	}
	*b = voiceEventBuffer{}
	return update
}
