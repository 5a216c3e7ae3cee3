package session

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/model/session"
	meetingService "github.com/zhouzirui/z-meeting/internal/service/meeting"
	"github.com/zhouzirui/z-meeting/pkg/utils"
)

// Handler 会话服务的HTTP处理器
type Handler struct {
	svc *meetingService.Service
}

// New 创建会话处理器
func New(svc *meetingService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Get("/sessions", h.handleList)
	r.Get("/sessions/{id}", h.handleGet)
	r.Put("/sessions/{id}/status", h.handleUpdateStatus)
	r.Post("/sessions/{id}/chat", h.handleChat)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload session.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.svc.CreateSession(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if err := h.svc.UpdateSessionStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Status updated")
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	reply, err := h.svc.Chat(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("message"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reply)
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := meetingService.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("session request failed")
	}
	utils.RespondError(w, status, meetingService.ErrorMessage(err))
}
