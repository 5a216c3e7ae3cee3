// Package meeting implements the dev backend's profile, session and voice operations.
package meeting

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/model/chat"
	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	"github.com/zhouzirui/z-meeting/internal/model/voice"
	"github.com/zhouzirui/z-meeting/internal/model/wire"
	"github.com/zhouzirui/z-meeting/internal/service/ai"
	"github.com/zhouzirui/z-meeting/internal/store"
)

// ValidationError reports a rejected request field.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var (
	ErrNameRequired    error = ValidationError("name is required")
	ErrRoleRequired    error = ValidationError("role is required")
	ErrProfileRequired error = ValidationError("profile_id is required")
	ErrStatusRequired  error = ValidationError("status is required")
	ErrMessageRequired error = ValidationError("message is required")
	ErrAudioRequired   error = ValidationError("audio_file is required")
	ErrTextRequired    error = ValidationError("text is required")
	// ErrGeneration wraps responder failures.
	ErrGeneration = errors.New("failed to generate response")
)

const synthesisNotice = "Text ready for local speech output. Voice cloning is not configured."

// Service encapsulates meeting state management on top of a Store.
type Service struct {
	store     store.Store
	responder ai.Responder
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes a Service.
type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides entity identifiers.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService wires a store and a responder. A nil responder answers with canned replies.
func NewService(st store.Store, responder ai.Responder, opts ...Option) *Service {
	if responder == nil {
		responder = ai.CannedResponder{}
	}
	s := &Service{
		store:     st,
		responder: responder,
		logger:    zerolog.Nop(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProfile validates and stores a new profile.
func (s *Service) CreateProfile(ctx context.Context, in profile.Input) (profile.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	if in.Name == "" {
		return profile.Profile{}, ErrNameRequired
	}
	if in.Role == "" {
		return profile.Profile{}, ErrRoleRequired
	}
	in.MeetingTopics = profile.ParseTopics(strings.Join(in.MeetingTopics, ","))

	p := in.Build(s.newID(), s.now())
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return profile.Profile{}, err
	}
	s.logger.Info().Str("profile_id", p.ID).Str("name", p.Name).Msg("profile created")
	return p, nil
}

func (s *Service) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	return s.store.ListProfiles(ctx)
}

func (s *Service) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	return s.store.DeleteProfile(ctx, id)
}

// CreateSession starts an active session bound to an existing profile.
func (s *Service) CreateSession(ctx context.Context, in session.Input) (session.Session, error) {
	if in.ProfileID == "" {
		return session.Session{}, ErrProfileRequired
	}
	p, err := s.store.GetProfile(ctx, in.ProfileID)
	if err != nil {
		return session.Session{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = session.ForProfile(p.ID, p.Name).Title
	}
	participants := in.Participants
	if participants == nil {
		participants = []string{}
	}

	sess := session.Session{
		ID:                  s.newID(),
		Title:               title,
		ProfileID:           p.ID,
		Participants:        participants,
		Status:              session.StatusActive,
		ConversationHistory: []session.HistoryEntry{},
		CreatedAt:           wire.NewTime(s.now()),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return session.Session{}, err
	}
	s.logger.Info().Str("session_id", sess.ID).Str("profile_id", p.ID).Msg("session created")
	return sess, nil
}

func (s *Service) ListSessions(ctx context.Context) ([]session.Session, error) {
	return s.store.ListSessions(ctx)
}

func (s *Service) GetSession(ctx context.Context, id string) (session.Session, error) {
	return s.store.GetSession(ctx, id)
}

// UpdateSessionStatus stores status verbatim; values are not restricted.
func (s *Service) UpdateSessionStatus(ctx context.Context, id, status string) error {
	if strings.TrimSpace(status) == "" {
		return ErrStatusRequired
	}
	return s.store.UpdateSessionStatus(ctx, id, status)
}

// Participant resolves the session and the profile it is bound to.
func (s *Service) Participant(ctx context.Context, sessionID string) (session.Session, profile.Profile, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, profile.Profile{}, err
	}
	p, err := s.store.GetProfile(ctx, sess.ProfileID)
	if err != nil {
		return session.Session{}, profile.Profile{}, err
	}
	return sess, p, nil
}

// Chat answers one request/response message and records it in the session history.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (chat.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return chat.Reply{}, ErrMessageRequired
	}
	sess, p, err := s.Participant(ctx, sessionID)
	if err != nil {
		return chat.Reply{}, err
	}

	answer, err := s.respond(ctx, sess, p, message)
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{
		Message:      answer,
		Confidence:   chat.DefaultConfidence,
		ResponseType: chat.ResponseAnswer,
	}, nil
}

// LiveReply answers a live meeting message attributed to speaker.
func (s *Service) LiveReply(ctx context.Context, sess session.Session, p profile.Profile, speaker, content string) (string, error) {
	return s.respond(ctx, sess, p, ai.LiveQuery(speaker, content))
}

func (s *Service) respond(ctx context.Context, sess session.Session, p profile.Profile, query string) (string, error) {
	// Reload so concurrent turns of the same session see each other.
	current, err := s.store.GetSession(ctx, sess.ID)
	if err != nil {
		return "", err
	}

	answer, err := s.responder.Reply(ctx, p, current.ConversationHistory, query)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("chat error")
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	entry := session.HistoryEntry{
		UserMessage: query,
		AIResponse:  answer,
		Timestamp:   s.now().Format(time.RFC3339Nano),
	}
	if err := s.store.AppendHistory(ctx, sess.ID, entry); err != nil {
		return "", err
	}
	return answer, nil
}

// UploadVoice stores an audio sample for future voice cloning.
func (s *Service) UploadVoice(ctx context.Context, name string, audio []byte) (voice.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return voice.Profile{}, ErrNameRequired
	}
	if len(audio) == 0 {
		return voice.Profile{}, ErrAudioRequired
	}

	v := voice.Profile{
		ID:        s.newID(),
		Name:      name,
		AudioData: base64.StdEncoding.EncodeToString(audio),
		Duration:  voice.PlaceholderDuration,
		CreatedAt: wire.NewTime(s.now()),
	}
	if err := s.store.CreateVoiceProfile(ctx, v); err != nil {
		return voice.Profile{}, err
	}
	s.logger.Info().Str("voice_id", v.ID).Int("bytes", len(audio)).Msg("voice sample uploaded")
	return v, nil
}

func (s *Service) ListVoiceProfiles(ctx context.Context) ([]voice.Profile, error) {
	return s.store.ListVoiceProfiles(ctx)
}

// Synthesize hands text back for local speech output; no audio is rendered server side.
func (s *Service) Synthesize(_ context.Context, text, voiceProfileID string) (voice.Synthesis, error) {
	if strings.TrimSpace(text) == "" {
		return voice.Synthesis{}, ErrTextRequired
	}
	out := voice.Synthesis{Text: text, Message: synthesisNotice}
	if voiceProfileID != "" {
		out.VoiceID = &voiceProfileID
	}
	return out, nil
}
