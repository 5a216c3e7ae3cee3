package profile

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
	meetingService "github.com/zhouzirui/z-meeting/internal/service/meeting"
	"github.com/zhouzirui/z-meeting/pkg/utils"
)

// Handler profile 服务的HTTP处理器
type Handler struct {
	svc *meetingService.Service
}

// New 创建profile处理器
func New(svc *meetingService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册profile相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/profiles", h.handleCreate)
	r.Get("/profiles", h.handleList)
	r.Get("/profiles/{id}", h.handleGet)
	r.Delete("/profiles/{id}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload profile.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.CreateProfile(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.ListProfiles(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profiles)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Profile deleted")
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := meetingService.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("profile request failed")
	}
	utils.RespondError(w, status, meetingService.ErrorMessage(err))
}
