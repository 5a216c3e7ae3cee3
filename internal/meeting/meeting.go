// Package meeting ties one live channel to a transcript and the speech queue.
package meeting

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/live"
	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	"github.com/zhouzirui/z-meeting/internal/model/transcript"
	"github.com/zhouzirui/z-meeting/internal/speech"
)

// Snapshot is the view state of a meeting at one instant.
type Snapshot struct {
	Connected bool
	Closed    bool
	LastError string
	Turns     []transcript.Turn
}

// Meeting is the owner of a live session view. Call End when done, typically deferred.
type Meeting struct {
	Session session.Session
	Profile profile.Profile

	logger     zerolog.Logger
	now        func() time.Time
	transcript *transcript.Transcript
	speech     *speech.Queue
	channel    *live.Channel
	rand       live.IntN

	mu        sync.RWMutex
	lastError string
	closed    bool

	events  chan struct{}
	endOnce sync.Once
}

// Option customizes a Meeting.
type Option func(*config)

type config struct {
	logger      zerolog.Logger
	now         func() time.Time
	rand        live.IntN
	channelOpts []live.Option
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClock overrides timestamps of assistant turns.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithRand fixes the scenario picker of Simulate. nil picks at random.
func WithRand(src live.IntN) Option {
	return func(c *config) { c.rand = src }
}

// WithChannelOptions passes options through to live.Dial.
func WithChannelOptions(opts ...live.Option) Option {
	return func(c *config) { c.channelOpts = append(c.channelOpts, opts...) }
}

// Start opens the live channel for sess and returns immediately; the channel is Connecting until
// the handshake completes.
func Start(ctx context.Context, liveURL string, sess session.Session, prof profile.Profile, synth speech.Synthesizer, opts ...Option) *Meeting {
	cfg := config{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if synth == nil {
		synth = speech.Silent{}
	}

	m := &Meeting{
		Session:    sess,
		Profile:    prof,
		logger:     cfg.logger,
		now:        cfg.now,
		transcript: transcript.New(),
		speech:     speech.NewQueue(synth, cfg.logger, 0),
		rand:       cfg.rand,
		events:     make(chan struct{}, 1),
	}

	channelOpts := append([]live.Option{live.WithLogger(cfg.logger)}, cfg.channelOpts...)
	m.channel = live.Dial(ctx, liveURL, &handler{m: m}, channelOpts...)
	return m
}

// Send relays typed text as the default participant.
func (m *Meeting) Send(content string) (transcript.Turn, error) {
	return m.SendAs(content, live.DefaultSpeaker)
}

// SendAs relays text attributed to speaker.
func (m *Meeting) SendAs(content, speaker string) (transcript.Turn, error) {
	return m.channel.Send(content, speaker)
}

// Simulate sends one canned meeting question.
func (m *Meeting) Simulate() (transcript.Turn, error) {
	return m.channel.SimulateQuestion(m.rand)
}

// Transcript returns the turns in arrival order.
func (m *Meeting) Transcript() []transcript.Turn {
	return m.transcript.Turns()
}

// Connected reports the connectivity flag.
func (m *Meeting) Connected() bool {
	return m.channel.Connected()
}

// Snapshot returns the current view state.
func (m *Meeting) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Connected: m.channel.Connected(),
		Closed:    m.closed,
		LastError: m.lastError,
		Turns:     m.transcript.Turns(),
	}
}

// Events signals that the snapshot changed. Notifications coalesce: one pending signal covers
// every change since the last receive.
func (m *Meeting) Events() <-chan struct{} {
	return m.events
}

// Done is closed once the live channel has shut down.
func (m *Meeting) Done() <-chan struct{} {
	return m.channel.Done()
}

// End closes the channel and stops speech output. Calling End again has no effect.
func (m *Meeting) End() {
	m.endOnce.Do(func() {
		_ = m.channel.Close()
		<-m.channel.Done()
		m.speech.Abort()
		m.logger.Info().Str("session_id", m.Session.ID).Int("turns", m.transcript.Len()).Msg("meeting ended")
	})
}

func (m *Meeting) notify() {
	select {
	case m.events <- struct{}{}:
	default:
	}
}

// handler keeps the live.Handler callbacks off the Meeting API.
type handler struct {
	m *Meeting
}

func (h *handler) OnOpen() {
	h.m.logger.Info().Str("session_id", h.m.Session.ID).Msg("meeting connected")
	h.m.notify()
}

func (h *handler) OnSent(turn transcript.Turn) {
	h.m.transcript.Append(turn)
	h.m.notify()
}

func (h *handler) OnAIResponse(resp live.AIResponse) {
	h.m.transcript.Append(transcript.Turn{
		Role:          transcript.RoleAssistant,
		Speaker:       resp.Speaker,
		Content:       resp.Content,
		Timestamp:     h.m.now(),
		CorrelationID: resp.ReplyTo,
	})
	if err := h.m.speech.Enqueue(speech.NewUtterance(resp.Content)); err != nil {
		h.m.logger.Debug().Err(err).Msg("speech output skipped")
	}
	h.m.notify()
}

func (h *handler) OnConnected(info live.Connected) {
	h.m.logger.Info().Str("message", info.Message).Msg("backend greeting")
}

func (h *handler) OnServerError(serr live.ServerError) {
	h.m.mu.Lock()
	h.m.lastError = serr.Message
	h.m.mu.Unlock()
	h.m.notify()
}

func (h *handler) OnClose(err error) {
	h.m.mu.Lock()
	h.m.closed = true
	if err != nil {
		h.m.lastError = err.Error()
	}
	h.m.mu.Unlock()
	h.m.notify()
}
