package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"uninews/internal/logger"
	"uninews/internal/services"

	"go.uber.org/zap"
)

// RevalidateHandler — эндпоинты ручной перегенерации страниц. Формат ответов
// зафиксирован внешним контрактом ({revalidated:true,...} / {message|error}),
// поэтому тут сырой JSON, а не общий конверт helpers.
type RevalidateHandler struct {
	svc *services.RevalidateService
}

func NewRevalidateHandler(svc *services.RevalidateService) *RevalidateHandler {
	return &RevalidateHandler{svc: svc}
}

type revalidatePostBody struct {
	Slug   string `json:"slug"`
	UserID string `json:"userId"`
}

// Home
// @Summary      Перегенерация главной страницы
// @Description  userId перепроверяется по базе: клиентский маркер сессии не является учётными данными
// @Tags         revalidate
// @Produce      json
// @Param        userId query string true "ID пользователя"
// @Success      200 {object} map[string]any
// @Failure      401 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /api/revalidate/home [get]
func (h *RevalidateHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.handleGet(w, r, h.svc.RevalidateHome)
}

// Research
// @Summary      Перегенерация страницы /research
// @Tags         revalidate
// @Produce      json
// @Param        userId query string true "ID пользователя"
// @Success      200 {object} map[string]any
// @Failure      401 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /api/revalidate/research [get]
func (h *RevalidateHandler) Research(w http.ResponseWriter, r *http.Request) {
	h.handleGet(w, r, h.svc.RevalidateResearch)
}

// Post
// @Summary      Перегенерация страницы поста
// @Tags         revalidate
// @Accept       json
// @Produce      json
// @Param        body body revalidatePostBody true "slug и userId"
// @Success      200 {object} map[string]any
// @Failure      401 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /api/revalidate/posts [post]
func (h *RevalidateHandler) Post(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var body revalidatePostBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeRaw(w, http.StatusBadRequest, map[string]any{"message": "Invalid JSON"})
		return
	}

	userID, err := strconv.Atoi(body.UserID)
	if body.UserID == "" || err != nil {
		log.Warn("revalidate: отсутствует или неверный userId")
		writeRaw(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized: missing userId"})
		return
	}

	if err := h.svc.RevalidatePost(r.Context(), userID, body.Slug); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeRaw(w, http.StatusOK, map[string]any{"revalidated": true, "slug": body.Slug})
}

func (h *RevalidateHandler) handleGet(w http.ResponseWriter, r *http.Request, fn func(context.Context, int) error) {
	log := logger.WithCtx(r.Context())

	raw := r.URL.Query().Get("userId")
	userID, err := strconv.Atoi(raw)
	if raw == "" || err != nil {
		log.Warn("revalidate: отсутствует или неверный userId", zap.String("raw", raw))
		writeRaw(w, http.StatusUnauthorized, map[string]any{"message": "Missing userId"})
		return
	}

	if err := fn(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeRaw(w, http.StatusOK, map[string]any{"revalidated": true, "now": time.Now().UnixMilli()})
}

func (h *RevalidateHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.WithCtx(r.Context())

	switch {
	case errors.Is(err, services.ErrValidation):
		writeRaw(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
	case errors.Is(err, services.ErrNotAllowed):
		log.Warn("revalidate: отказ в доступе", zap.Error(err))
		writeRaw(w, http.StatusForbidden, map[string]any{"message": "Not authorized"})
	default:
		// Сбой рендера не трогает уже записанный контент — просто сообщаем.
		log.Error("revalidate: ошибка рендер-слоя", zap.Error(err))
		writeRaw(w, http.StatusInternalServerError, map[string]any{
			"message": "Error revalidating page", "error": err.Error(),
		})
	}
}

func writeRaw(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
