package store

import (
	"context"
	"slices"
	"sync"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	"github.com/zhouzirui/z-meeting/internal/model/voice"
)

// MemoryStore implements Store in process memory, suitable for local development.
type MemoryStore struct {
	mu sync.RWMutex

	profiles     map[string]profile.Profile
	profileOrder []string
	sessions     map[string]session.Session
	sessionOrder []string
	voices       []voice.Profile
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]profile.Profile),
		sessions: make(map[string]session.Session),
	}
}

func (s *MemoryStore) CreateProfile(_ context.Context, p profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; !ok {
		s.profileOrder = append(s.profileOrder, p.ID)
	}
	s.profiles[p.ID] = cloneProfile(p)
	return nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]profile.Profile, 0, min(len(s.profileOrder), listLimit))
	for _, id := range s.profileOrder {
		if len(out) == listLimit {
			break
		}
		out = append(out, cloneProfile(s.profiles[id]))
	}
	return out, nil
}

func (s *MemoryStore) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrProfileNotFound
	}
	delete(s.profiles, id)
	s.profileOrder = slices.DeleteFunc(s.profileOrder, func(v string) bool { return v == id })
	return nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; !ok {
		s.sessionOrder = append(s.sessionOrder, sess.ID)
	}
	s.sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (s *MemoryStore) ListSessions(_ context.Context) ([]session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Reverse insertion order first so equal timestamps list the later insert first.
	out := make([]session.Session, 0, len(s.sessionOrder))
	for i := len(s.sessionOrder) - 1; i >= 0; i-- {
		out = append(out, cloneSession(s.sessions[s.sessionOrder[i]]))
	}
	slices.SortStableFunc(out, func(a, b session.Session) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	if len(out) > listLimit {
		out = out[:listLimit]
	}
	return out, nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

func (s *MemoryStore) UpdateSessionStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Status = status
	s.sessions[id] = sess
	return nil
}

func (s *MemoryStore) AppendHistory(_ context.Context, sessionID string, entry session.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.ConversationHistory = append(slices.Clip(sess.ConversationHistory), entry)
	s.sessions[sessionID] = sess
	return nil
}

func (s *MemoryStore) CreateVoiceProfile(_ context.Context, v voice.Profile) error {
	s.mu.Lock()
	s.voices = append(s.voices, v)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListVoiceProfiles(_ context.Context) ([]voice.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]voice.Profile, min(len(s.voices), voiceListLimit))
	copy(out, s.voices)
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func cloneProfile(p profile.Profile) profile.Profile {
	p.MeetingTopics = slices.Clone(p.MeetingTopics)
	if p.MeetingTopics == nil {
		p.MeetingTopics = []string{}
	}
	return p
}

func cloneSession(s session.Session) session.Session {
	s.Participants = slices.Clone(s.Participants)
	if s.Participants == nil {
		s.Participants = []string{}
	}
	s.ConversationHistory = slices.Clone(s.ConversationHistory)
	if s.ConversationHistory == nil {
		s.ConversationHistory = []session.HistoryEntry{}
	}
	return s
}
