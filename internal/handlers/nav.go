package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"uninews/internal/logger"
	"uninews/internal/middleware"
	"uninews/internal/models"
	"uninews/internal/services"
	helpers "uninews/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type NavHandler struct{ svc *services.NavService }

func NewNavHandler(s *services.NavService) *NavHandler {
	return &NavHandler{svc: s}
}

// ListTabs
// @Summary      Список вкладок навигации
// @Description  Вкладки с разделами по позиции; admin_only-вкладки видны только администратору
// @Tags         nav
// @Produce      json
// @Success      200 {array} models.Tab
// @Failure      500 {object} map[string]string
// @Router       /api/nav [get]
func (h *NavHandler) ListTabs(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	role, _ := r.Context().Value(middleware.ContextRole).(string)
	tabs, err := h.svc.ListTabs(r.Context(), role == "admin")
	if err != nil {
		log.Error("nav: ошибка получения вкладок", zap.Error(err))
		serviceError(w, err)
		return
	}

	log.Info("nav: вкладки получены", zap.Int("tabs_count", len(tabs)))
	helpers.JSON(w, http.StatusOK, tabs)
}

// WatchTabs
// @Summary      Поток изменений навигации (SSE)
// @Description  Отдаёт полный снапшот вкладок сразу и после каждой мутации; admin_only-вкладки видны только администратору
// @Tags         nav
// @Produce      text/event-stream
// @Success      200 {string} string "event stream"
// @Router       /api/nav/watch [get]
func (h *NavHandler) WatchTabs(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		helpers.Error(w, http.StatusInternalServerError, "streaming не поддерживается")
		return
	}

	role, _ := r.Context().Value(middleware.ContextRole).(string)
	includeAdminOnly := role == "admin"

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, updates := h.svc.Subscribe()
	defer h.svc.Unsubscribe(subID)

	log.Info("nav: подписчик подключён", zap.Int("sub_id", subID))

	send := func(tabs []*models.Tab) bool {
		data, err := json.Marshal(visibleTabs(tabs, includeAdminOnly))
		if err != nil {
			log.Error("nav: ошибка сериализации снапшота", zap.Error(err))
			return false
		}
		if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// Первый снапшот — сразу, дальше только по мутациям.
	if tabs, err := h.svc.ListTabs(r.Context(), includeAdminOnly); err == nil {
		if !send(tabs) {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			log.Info("nav: подписчик отключён", zap.Int("sub_id", subID))
			return
		case tabs, ok := <-updates:
			if !ok {
				return
			}
			if !send(tabs) {
				return
			}
		}
	}
}

// CreateTab
// @Summary      Создать вкладку
// @Description  Доступно только администратору
// @Tags         nav
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        body  body  models.CreateTabRequest  true  "Данные вкладки"
// @Success      201   {object} models.Tab
// @Failure      400   {object} map[string]string
// @Failure      500   {object} map[string]string
// @Router       /api/admin/tabs [post]
func (h *NavHandler) CreateTab(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.CreateTabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("nav: невалидный JSON при создании вкладки", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	log.Info("nav: создание вкладки", zap.String("title", req.Title))

	tab, err := h.svc.CreateTab(r.Context(), &req)
	if err != nil {
		log.Error("nav: ошибка создания вкладки", zap.Error(err))
		serviceError(w, err)
		return
	}

	log.Info("nav: вкладка создана", zap.Int("tab_id", tab.ID), zap.String("slug", tab.Slug))
	helpers.JSON(w, http.StatusCreated, tab)
}

// UpdateTab
// @Summary      Обновить вкладку
// @Description  Переписывает заголовок, разделы и admin_only; позиция и slug вкладки не меняются
// @Tags         nav
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "ID вкладки"
// @Param        body  body  models.UpdateTabRequest  true  "Обновлённые данные"
// @Success      204   {string} string "No Content"
// @Failure      400   {object} map[string]string
// @Failure      404   {object} map[string]string
// @Router       /api/admin/tabs/{id} [patch]
func (h *NavHandler) UpdateTab(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		log.Warn("nav: неверный id вкладки", zap.String("raw", mux.Vars(r)["id"]))
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req models.UpdateTabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("nav: невалидный JSON при обновлении вкладки", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.svc.UpdateTab(r.Context(), id, &req); err != nil {
		log.Error("nav: ошибка обновления вкладки", zap.Error(err), zap.Int("tab_id", id))
		serviceError(w, err)
		return
	}

	log.Info("nav: вкладка обновлена", zap.Int("tab_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTab
// @Summary      Удалить вкладку
// @Description  Необратимо; посты с её слогами не удаляются
// @Tags         nav
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "ID вкладки"
// @Success      204 {string} string "No Content"
// @Failure      500 {object} map[string]string
// @Router       /api/admin/tabs/{id} [delete]
func (h *NavHandler) DeleteTab(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	if err := h.svc.DeleteTab(r.Context(), id); err != nil {
		log.Error("nav: ошибка удаления вкладки", zap.Error(err), zap.Int("tab_id", id))
		serviceError(w, err)
		return
	}

	log.Info("nav: вкладка удалена", zap.Int("tab_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// AddSection
// @Summary      Добавить раздел во вкладку
// @Tags         nav
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        id    path  int                         true  "ID вкладки"
// @Param        body  body  models.SectionTitleRequest  true  "Название раздела"
// @Success      201   {object} models.Section
// @Failure      400   {object} map[string]string
// @Router       /api/admin/tabs/{id}/sections [post]
func (h *NavHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req models.SectionTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("nav: невалидный JSON при добавлении раздела", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	sec, err := h.svc.AddSection(r.Context(), id, req.Title)
	if err != nil {
		log.Error("nav: ошибка добавления раздела", zap.Error(err), zap.Int("tab_id", id))
		serviceError(w, err)
		return
	}

	log.Info("nav: раздел добавлен", zap.Int("tab_id", id), zap.String("slug", sec.Slug))
	helpers.JSON(w, http.StatusCreated, sec)
}

// UpdateSection
// @Summary      Обновить раздел по позиции
// @Description  Раздел адресуется индексом в списке вкладки
// @Tags         nav
// @Security     ApiKeyAuth
// @Accept       json
// @Param        id     path  int                         true  "ID вкладки"
// @Param        index  path  int                         true  "Индекс раздела"
// @Param        body   body  models.SectionTitleRequest  true  "Новое название"
// @Success      204    {string} string "No Content"
// @Failure      400    {object} map[string]string
// @Router       /api/admin/tabs/{id}/sections/{index} [patch]
func (h *NavHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad index")
		return
	}

	var req models.SectionTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("nav: невалидный JSON при обновлении раздела", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.svc.UpdateSection(r.Context(), id, index, req.Title); err != nil {
		log.Error("nav: ошибка обновления раздела", zap.Error(err),
			zap.Int("tab_id", id), zap.Int("index", index))
		serviceError(w, err)
		return
	}

	log.Info("nav: раздел обновлён", zap.Int("tab_id", id), zap.Int("index", index))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSection
// @Summary      Удалить раздел по позиции
// @Tags         nav
// @Security     ApiKeyAuth
// @Param        id     path  int  true  "ID вкладки"
// @Param        index  path  int  true  "Индекс раздела"
// @Success      204    {string} string "No Content"
// @Failure      400    {object} map[string]string
// @Router       /api/admin/tabs/{id}/sections/{index} [delete]
func (h *NavHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad index")
		return
	}

	if err := h.svc.DeleteSection(r.Context(), id, index); err != nil {
		log.Error("nav: ошибка удаления раздела", zap.Error(err),
			zap.Int("tab_id", id), zap.Int("index", index))
		serviceError(w, err)
		return
	}

	log.Info("nav: раздел удалён", zap.Int("tab_id", id), zap.Int("index", index))
	w.WriteHeader(http.StatusNoContent)
}

// visibleTabs скрывает admin_only-вкладки от не-админов. Снапшоты из broadcast
// приходят полными, фильтрация — на стороне каждого подписчика.
func visibleTabs(tabs []*models.Tab, includeAdminOnly bool) []*models.Tab {
	if includeAdminOnly {
		return tabs
	}
	out := make([]*models.Tab, 0, len(tabs))
	for _, t := range tabs {
		if !t.AdminOnly {
			out = append(out, t)
		}
	}
	return out
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
