package live

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	liveproto "github.com/zhouzirui/z-meeting/internal/live"
	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	meetingService "github.com/zhouzirui/z-meeting/internal/service/meeting"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler serves the live meeting websocket.
type Handler struct {
	svc      *meetingService.Service
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// New 创建实时会议处理器
func New(svc *meetingService.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{id}/live", h.handleLive)
}

// handleLive accepts first and reports unknown sessions in-band, then answers messages and pings.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := h.logger.With().Str("session_id", sessionID).Logger()

	sess, prof, err := h.svc.Participant(r.Context(), sessionID)
	if err != nil {
		h.write(conn, logger, map[string]string{"error": meetingService.ErrorMessage(err)})
		h.closeNormal(conn)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go h.pingLoop(ctx, conn)

	logger.Info().Str("profile", prof.Name).Msg("live connection opened")
	h.write(conn, logger, liveproto.Envelope{
		Type:      liveproto.TypeConnected,
		Message:   "Connected to meeting as " + prof.Name,
		SessionID: sessionID,
	})

	for {
		var msg liveproto.Envelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("live read error")
			}
			logger.Info().Msg("live connection closed")
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case liveproto.TypeMessage:
			h.handleMessage(ctx, conn, logger, sess, prof, msg)
		case liveproto.TypePing:
			h.write(conn, logger, liveproto.Envelope{Type: liveproto.TypePong})
		default:
			logger.Debug().Str("type", msg.Type).Msg("ignoring envelope")
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, logger zerolog.Logger, sess session.Session, prof profile.Profile, msg liveproto.Envelope) {
	speaker := msg.Speaker
	if speaker == "" {
		speaker = "Unknown"
	}

	answer, err := h.svc.LiveReply(ctx, sess, prof, speaker, msg.Content)
	if err != nil {
		h.write(conn, logger, liveproto.Envelope{
			Type:    liveproto.TypeError,
			Message: meetingService.ErrorMessage(err),
		})
		return
	}

	h.write(conn, logger, liveproto.Envelope{
		Type:      liveproto.TypeAIResponse,
		Content:   answer,
		Speaker:   prof.Name,
		ReplyTo:   msg.ID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) write(conn *websocket.Conn, logger zerolog.Logger, v any) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(v); err != nil {
		logger.Warn().Err(err).Msg("live write failed")
	}
}

func (h *Handler) closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
