package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
)

func newTestServer(t *testing.T, register func(r chi.Router)) *Client {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", register)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithTimeout(2*time.Second))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateProfileNormalizesTopics(t *testing.T) {
	var received profile.Input
	client := newTestServer(t, func(r chi.Router) {
		r.Post("/profiles", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			writeJSON(w, http.StatusOK, received.Build("p-1", time.Now()))
		})
	})

	got, err := client.CreateProfile(context.Background(), profile.Input{
		Name:          "Sarah",
		Role:          "Product Manager",
		MeetingTopics: []string{"a, b ,,c"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, received.MeetingTopics)
	assert.Equal(t, "p-1", got.ID)
	assert.Equal(t, []string{"a", "b", "c"}, got.MeetingTopics)
}

func TestListAndGet(t *testing.T) {
	client := newTestServer(t, func(r chi.Router) {
		r.Get("/profiles", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []profile.Profile{{ID: "p-1", Name: "Sarah"}, {ID: "p-2", Name: "Tom"}})
		})
		r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, session.Session{ID: chi.URLParam(r, "id"), Title: "Meeting with Sarah", Status: session.StatusActive})
		})
	})

	profiles, err := client.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Tom", profiles[1].Name)

	sess, err := client.GetSession(context.Background(), "s-9")
	require.NoError(t, err)
	assert.Equal(t, "s-9", sess.ID)
	assert.Equal(t, session.StatusActive, sess.Status)
}

func TestCreateSessionSendsEmptyParticipants(t *testing.T) {
	var raw map[string]any
	client := newTestServer(t, func(r chi.Router) {
		r.Post("/sessions", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			writeJSON(w, http.StatusOK, session.Session{ID: "s-1", ProfileID: "p-1"})
		})
	})

	_, err := client.CreateSession(context.Background(), session.Input{Title: "t", ProfileID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, raw["participants"])
}

func TestQueryParameters(t *testing.T) {
	var status, message, text, voiceID string
	client := newTestServer(t, func(r chi.Router) {
		r.Put("/sessions/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			status = r.URL.Query().Get("status")
			writeJSON(w, http.StatusOK, map[string]string{"message": "Status updated"})
		})
		r.Post("/sessions/{id}/chat", func(w http.ResponseWriter, r *http.Request) {
			message = r.URL.Query().Get("message")
			writeJSON(w, http.StatusOK, map[string]any{"message": "On track", "confidence": 0.95, "response_type": "conversational"})
		})
		r.Post("/voice/synthesize", func(w http.ResponseWriter, r *http.Request) {
			text = r.URL.Query().Get("text")
			voiceID = r.URL.Query().Get("voice_profile_id")
			writeJSON(w, http.StatusOK, map[string]any{"text": text, "voice_id": voiceID, "audio_url": nil, "message": "queued"})
		})
	})
	ctx := context.Background()

	require.NoError(t, client.UpdateSessionStatus(ctx, "s-1", session.StatusEnded))
	assert.Equal(t, "ended", status)

	reply, err := client.Chat(ctx, "s-1", "status update?")
	require.NoError(t, err)
	assert.Equal(t, "status update?", message)
	assert.Equal(t, "On track", reply.Message)
	assert.InDelta(t, 0.95, reply.Confidence, 1e-9)

	syn, err := client.Synthesize(ctx, "hello there", "v-1")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Equal(t, "v-1", voiceID)
	require.NotNil(t, syn.VoiceID)
	assert.Equal(t, "v-1", *syn.VoiceID)
	assert.Nil(t, syn.AudioURL)
}

func TestUploadVoiceMultipart(t *testing.T) {
	client := newTestServer(t, func(r chi.Router) {
		r.Post("/voice/upload", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("audio_file")
			require.NoError(t, err)
			defer file.Close()
			data, _ := io.ReadAll(file)

			assert.Equal(t, "sample.wav", header.Filename)
			assert.Equal(t, "RIFF....", string(data))
			writeJSON(w, http.StatusOK, map[string]any{"id": "v-1", "name": r.FormValue("name"), "duration": 10.0})
		})
	})

	vp, err := client.UploadVoice(context.Background(), " My voice ", "sample.wav", strings.NewReader("RIFF...."))
	require.NoError(t, err)
	assert.Equal(t, "v-1", vp.ID)
	assert.Equal(t, "My voice", vp.Name)
}

func TestErrorResponses(t *testing.T) {
	client := newTestServer(t, func(r chi.Router) {
		r.Get("/profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Profile not found"})
		})
		r.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
	})
	ctx := context.Background()

	_, err := client.GetProfile(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Profile not found")

	_, err = client.ListSessions(ctx)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "boom", te.Message)
	assert.False(t, IsNotFound(err))
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := New(srv.URL)
	err := client.DeleteProfile(context.Background(), "p-1")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Error(t, te.Unwrap())
}

func TestLiveURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "http://localhost:8080", want: "ws://localhost:8080/api/sessions/s-1/live"},
		{base: "https://meet.example.com/", want: "wss://meet.example.com/api/sessions/s-1/live"},
		{base: "https://meet.example.com/prefix", want: "wss://meet.example.com/prefix/api/sessions/s-1/live"},
	}
	for _, tt := range tests {
		got, err := New(tt.base).LiveURL("s-1")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := New("ftp://example.com").LiveURL("s-1")
	assert.Error(t, err)
}

func TestDecodesNaiveTimestamps(t *testing.T) {
	const stamp = `"2024-05-01T12:00:00.123456"`
	client := newTestServer(t, func(r chi.Router) {
		r.Get("/profiles", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":"p-1","name":"Sarah","role":"PM","personality":"","response_style":"","meeting_topics":[],"created_at":`+stamp+`}]`)
		})
		r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"s-1","title":"Meeting with Sarah","profile_id":"p-1","participants":[],"status":"active","conversation_history":[],"created_at":`+stamp+`}`)
		})
		r.Get("/voice/profiles", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":"v-1","name":"My voice","duration":10.0,"created_at":`+stamp+`}]`)
		})
	})
	want := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)
	ctx := context.Background()

	profiles, err := client.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.True(t, profiles[0].CreatedAt.Equal(want), "profile created_at = %s", profiles[0].CreatedAt)

	sess, err := client.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, sess.CreatedAt.Equal(want), "session created_at = %s", sess.CreatedAt)

	voices, err := client.ListVoiceProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.True(t, voices[0].CreatedAt.Equal(want), "voice created_at = %s", voices[0].CreatedAt)
}

func TestDecodeFailureReportsCause(t *testing.T) {
	client := newTestServer(t, func(r chi.Router) {
		r.Get("/profiles", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":"p-1","created_at":"last tuesday"}]`)
		})
	})

	_, err := client.ListProfiles(context.Background())
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusOK, te.StatusCode)
	assert.Contains(t, err.Error(), "list profiles (status 200): decode response")
	assert.Contains(t, err.Error(), "last tuesday")
}
