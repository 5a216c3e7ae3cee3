package voice

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	meetingService "github.com/zhouzirui/z-meeting/internal/service/meeting"
	"github.com/zhouzirui/z-meeting/pkg/utils"
)

// maxUploadBytes 上传音频的大小上限
const maxUploadBytes = 32 << 20

// Handler 语音样本的HTTP处理器
type Handler struct {
	svc *meetingService.Service
}

// New 创建语音处理器
func New(svc *meetingService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/voice/upload", h.handleUpload)
	r.Get("/voice/profiles", h.handleList)
	r.Post("/voice/synthesize", h.handleSynthesize)
}

// handleUpload 接收 multipart 字段 name 与 audio_file
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("audio_file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, meetingService.ErrAudioRequired.Error())
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("voice upload error")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to upload voice")
		return
	}

	v, err := h.svc.UploadVoice(r.Context(), r.FormValue("name"), audio)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, v)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	voices, err := h.svc.ListVoiceProfiles(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, voices)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.Synthesize(r.Context(), q.Get("text"), q.Get("voice_profile_id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := meetingService.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("voice request failed")
	}
	utils.RespondError(w, status, meetingService.ErrorMessage(err))
}
