// Package store persists profiles, sessions and voice samples for the dev backend.
package store

import (
	"context"
	"errors"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	"github.com/zhouzirui/z-meeting/internal/model/voice"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrSessionNotFound = errors.New("session not found")
)

const (
	// listLimit caps profile and session listings.
	listLimit = 100
	// voiceListLimit caps voice profile listings.
	voiceListLimit = 10
)

// Store is the persistence boundary of the backend services.
type Store interface {
	CreateProfile(ctx context.Context, p profile.Profile) error
	// ListProfiles returns profiles in creation order.
	ListProfiles(ctx context.Context) ([]profile.Profile, error)
	GetProfile(ctx context.Context, id string) (profile.Profile, error)
	DeleteProfile(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s session.Session) error
	// ListSessions returns sessions newest first.
	ListSessions(ctx context.Context) ([]session.Session, error)
	GetSession(ctx context.Context, id string) (session.Session, error)
	UpdateSessionStatus(ctx context.Context, id, status string) error
	AppendHistory(ctx context.Context, sessionID string, entry session.HistoryEntry) error

	CreateVoiceProfile(ctx context.Context, v voice.Profile) error
	ListVoiceProfiles(ctx context.Context) ([]voice.Profile, error)

	Close() error
}
