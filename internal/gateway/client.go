// Package gateway is the REST client for the meeting assistant backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/model/chat"
	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	"github.com/zhouzirui/z-meeting/internal/model/voice"
)

const apiPrefix = "/api"

// Client issues request/response calls against the backend. Calls are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a gateway client for the backend at baseURL (scheme://host[:port]).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL 返回后端地址。
func (c *Client) BaseURL() string { return c.baseURL }

// LiveURL returns the websocket endpoint of a session's live channel.
func (c *Client) LiveURL(sessionID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + "/sessions/" + url.PathEscape(sessionID) + "/live"
	return u.String(), nil
}

// ListProfiles returns all profiles.
func (c *Client) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	var out []profile.Profile
	if err := c.do(ctx, "list profiles", http.MethodGet, "/profiles", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProfile fetches one profile.
func (c *Client) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	var out profile.Profile
	err := c.do(ctx, "get profile", http.MethodGet, "/profiles/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// CreateProfile creates a profile. Topics are normalized the same way ParseTopics does.
func (c *Client) CreateProfile(ctx context.Context, in profile.Input) (profile.Profile, error) {
	in.MeetingTopics = profile.ParseTopics(strings.Join(in.MeetingTopics, ","))

	var out profile.Profile
	err := c.do(ctx, "create profile", http.MethodPost, "/profiles", nil, in, &out)
	return out, err
}

// DeleteProfile removes a profile.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.do(ctx, "delete profile", http.MethodDelete, "/profiles/"+url.PathEscape(id), nil, nil, nil)
}

// ListSessions returns all sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]session.Session, error) {
	var out []session.Session
	if err := c.do(ctx, "list sessions", http.MethodGet, "/sessions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSession fetches one session.
func (c *Client) GetSession(ctx context.Context, id string) (session.Session, error) {
	var out session.Session
	err := c.do(ctx, "get session", http.MethodGet, "/sessions/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// CreateSession creates a session bound to a profile and returns it with its generated identity.
func (c *Client) CreateSession(ctx context.Context, in session.Input) (session.Session, error) {
	if in.Participants == nil {
		in.Participants = []string{}
	}
	var out session.Session
	err := c.do(ctx, "create session", http.MethodPost, "/sessions", nil, in, &out)
	return out, err
}

// UpdateSessionStatus sets the session status.
func (c *Client) UpdateSessionStatus(ctx context.Context, id, status string) error {
	q := url.Values{"status": {status}}
	return c.do(ctx, "update session status", http.MethodPut, "/sessions/"+url.PathEscape(id)+"/status", q, nil, nil)
}

// Chat sends one message through the request/response chat endpoint.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (chat.Reply, error) {
	q := url.Values{"message": {message}}
	var out chat.Reply
	err := c.do(ctx, "chat", http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/chat", q, nil, &out)
	return out, err
}

// ListVoiceProfiles returns uploaded voice samples.
func (c *Client) ListVoiceProfiles(ctx context.Context) ([]voice.Profile, error) {
	var out []voice.Profile
	if err := c.do(ctx, "list voice profiles", http.MethodGet, "/voice/profiles", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadVoice uploads an audio/video sample as multipart fields audio_file and name.
func (c *Client) UploadVoice(ctx context.Context, name, filename string, audio io.Reader) (voice.Profile, error) {
	const op = "upload voice"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio_file", filename)
	if err != nil {
		return voice.Profile{}, &TransportError{Op: op, Err: err}
	}
	if _, err := io.Copy(part, audio); err != nil {
		return voice.Profile{}, &TransportError{Op: op, Err: fmt.Errorf("read audio: %w", err)}
	}
	if err := writer.WriteField("name", strings.TrimSpace(name)); err != nil {
		return voice.Profile{}, &TransportError{Op: op, Err: err}
	}
	if err := writer.Close(); err != nil {
		return voice.Profile{}, &TransportError{Op: op, Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/voice/upload", nil, body)
	if err != nil {
		return voice.Profile{}, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out voice.Profile
	err = c.send(op, req, &out)
	return out, err
}

// Synthesize asks the backend to prepare text for speech output.
func (c *Client) Synthesize(ctx context.Context, text, voiceProfileID string) (voice.Synthesis, error) {
	q := url.Values{"text": {text}}
	if voiceProfileID != "" {
		q.Set("voice_profile_id", voiceProfileID)
	}
	var out voice.Synthesis
	err := c.do(ctx, "synthesize", http.MethodPost, "/voice/synthesize", q, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(op, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(op string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("request failed")
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readErrorMessage extracts {"detail": ...} or {"error": ...} bodies, falling back to raw text.
func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
