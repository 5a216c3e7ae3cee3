package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	"github.com/zhouzirui/z-meeting/internal/model/voice"
	"github.com/zhouzirui/z-meeting/internal/model/wire"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	role           TEXT NOT NULL,
	personality    TEXT NOT NULL,
	response_style TEXT NOT NULL,
	meeting_topics TEXT NOT NULL,
	created_at     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	profile_id   TEXT NOT NULL,
	participants TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS session_history (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	user_message TEXT NOT NULL,
	ai_response  TEXT NOT NULL,
	timestamp    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_history_session ON session_history(session_id, seq);
CREATE TABLE IF NOT EXISTS voice_profiles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	audio_data TEXT NOT NULL,
	duration   REAL NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProfile(ctx context.Context, p profile.Profile) error {
	topics, err := marshalList(p.MeetingTopics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (id, name, role, personality, response_style, meeting_topics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Role, p.Personality, p.ResponseStyle, topics, p.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, personality, response_style, meeting_topics, created_at
		FROM profiles
		ORDER BY rowid ASC
		LIMIT ?
	`, listLimit)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]profile.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, personality, response_style, meeting_topics, created_at
		FROM profiles
		WHERE id = ?
	`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, ErrProfileNotFound
	}
	return p, err
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireAffected(res, ErrProfileNotFound)
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess session.Session) error {
	participants, err := marshalList(sess.Participants)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, title, profile_id, participants, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Title, sess.ProfileID, participants, sess.Status, sess.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for _, entry := range sess.ConversationHistory {
		if err := s.AppendHistory(ctx, sess.ID, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]session.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, profile_id, participants, status, created_at
		FROM sessions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, listLimit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	sessions := make([]session.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	// History is loaded after the rows are closed; the pool holds a single connection.
	for i := range sessions {
		history, err := s.history(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].ConversationHistory = history
	}
	return sessions, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (session.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, profile_id, participants, status, created_at
		FROM sessions
		WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, err
	}

	sess.ConversationHistory, err = s.history(ctx, id)
	return sess, err
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return requireAffected(res, ErrSessionNotFound)
}

func (s *SQLiteStore) AppendHistory(ctx context.Context, sessionID string, entry session.HistoryEntry) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_history (session_id, user_message, ai_response, timestamp)
		VALUES (?, ?, ?, ?)
	`, sessionID, entry.UserMessage, entry.AIResponse, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateVoiceProfile(ctx context.Context, v voice.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO voice_profiles (id, name, audio_data, duration, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.ID, v.Name, v.AudioData, v.Duration, v.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert voice profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListVoiceProfiles(ctx context.Context) ([]voice.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, audio_data, duration, created_at
		FROM voice_profiles
		ORDER BY rowid ASC
		LIMIT ?
	`, voiceListLimit)
	if err != nil {
		return nil, fmt.Errorf("query voice profiles: %w", err)
	}
	defer rows.Close()

	voices := make([]voice.Profile, 0)
	for rows.Next() {
		var v voice.Profile
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.Name, &v.AudioData, &v.Duration, &createdAt); err != nil {
			return nil, fmt.Errorf("scan voice profile: %w", err)
		}
		v.CreatedAt = wire.NewTime(timeFromUnixNano(createdAt))
		voices = append(voices, v)
	}
	return voices, rows.Err()
}

func (s *SQLiteStore) history(ctx context.Context, sessionID string) ([]session.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_message, ai_response, timestamp
		FROM session_history
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := make([]session.HistoryEntry, 0)
	for rows.Next() {
		var h session.HistoryEntry
		if err := rows.Scan(&h.UserMessage, &h.AIResponse, &h.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (profile.Profile, error) {
	var p profile.Profile
	var topics string
	var createdAt int64
	if err := row.Scan(&p.ID, &p.Name, &p.Role, &p.Personality, &p.ResponseStyle, &topics, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan profile: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &p.MeetingTopics); err != nil {
		return p, fmt.Errorf("decode meeting topics: %w", err)
	}
	p.CreatedAt = wire.NewTime(timeFromUnixNano(createdAt))
	return p, nil
}

func scanSession(row scanner) (session.Session, error) {
	var sess session.Session
	var participants string
	var createdAt int64
	if err := row.Scan(&sess.ID, &sess.Title, &sess.ProfileID, &participants, &sess.Status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sess, err
		}
		return sess, fmt.Errorf("scan session: %w", err)
	}
	if err := json.Unmarshal([]byte(participants), &sess.Participants); err != nil {
		return sess, fmt.Errorf("decode participants: %w", err)
	}
	sess.CreatedAt = wire.NewTime(timeFromUnixNano(createdAt))
	return sess, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func timeFromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
