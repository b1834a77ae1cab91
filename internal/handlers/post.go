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

type PostHandler struct {
	svc *services.PostService
}

func NewPostHandler(svc *services.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// CreatePost
// @Summary      Создать пост (только admin)
// @Description  Картинка передаётся как data URL в cover_photo и грузится второй фазой
// @Tags         admin-posts
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        input body models.CreatePostRequest true "Данные поста"
// @Success      201 {object} map[string]int
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /api/admin/posts [post]
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет аутентификации")
		return
	}

	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("posts: невалидный JSON при создании поста", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	log.Info("posts: создание поста", zap.String("title", req.Title), zap.Int("tab_id", req.TabID))

	id, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		log.Error("posts: ошибка создания поста", zap.Error(err))
		serviceError(w, err)
		return
	}

	log.Info("posts: пост создан", zap.Int("post_id", id))
	helpers.JSON(w, http.StatusCreated, map[string]int{"id": id})
}

// UpdatePost
// @Summary      Обновить пост (только admin)
// @Description  Slug пересчитывается из заголовка при каждой правке
// @Tags         admin-posts
// @Security     ApiKeyAuth
// @Accept       json
// @Param        id    path int                      true "ID поста"
// @Param        input body models.UpdatePostRequest true "Новое содержимое"
// @Success      204 {string} string "No Content"
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /api/admin/posts/{id} [patch]
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, _ := r.Context().Value(middleware.ContextUserID).(int)
	id, err := pathID(r, "id")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	var req models.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("posts: невалидный JSON при обновлении поста", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.svc.Update(r.Context(), userID, id, &req); err != nil {
		log.Error("posts: ошибка обновления поста", zap.Error(err), zap.Int("post_id", id))
		serviceError(w, err)
		return
	}

	log.Info("posts: пост обновлён", zap.Int("post_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// DeletePost
// @Summary      Удалить пост (только admin)
// @Tags         admin-posts
// @Security     ApiKeyAuth
// @Param        id path int true "ID поста"
// @Success      204 {string} string "No Content"
// @Failure      500 {object} map[string]string
// @Router       /api/admin/posts/{id} [delete]
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, _ := r.Context().Value(middleware.ContextUserID).(int)
	id, err := pathID(r, "id")
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "bad id")
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		log.Error("posts: ошибка удаления поста", zap.Error(err), zap.Int("post_id", id))
		serviceError(w, err)
		return
	}

	log.Info("posts: пост удалён", zap.Int("post_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// AdminListPosts
// @Summary      Админский список постов с поиском
// @Description  Подстрока по title/section_slug (без регистра) плюс точный фильтр по вкладке
// @Tags         admin-posts
// @Security     ApiKeyAuth
// @Produce      json
// @Param        search query string false "Поисковая строка"
// @Param        tab    query string false "Slug вкладки (или all)"
// @Success      200 {array} models.Post
// @Router       /api/admin/posts [get]
func (h *PostHandler) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	search := r.URL.Query().Get("search")
	tab := r.URL.Query().Get("tab")

	posts, err := h.svc.AdminSearch(r.Context(), search, tab)
	if err != nil {
		log.Error("posts: ошибка поиска постов", zap.Error(err))
		serviceError(w, err)
		return
	}

	log.Info("posts: админский список получен", zap.Int("count", len(posts)))
	helpers.JSON(w, http.StatusOK, posts)
}

// GetPostBySlug
// @Summary      Пост по slug
// @Description  При коллизии слогов отдаётся более поздний пост
// @Tags         posts
// @Produce      json
// @Param        slug path string true "Slug поста"
// @Success      200 {object} models.Post
// @Failure      404 {object} map[string]string
// @Router       /api/posts/{slug} [get]
func (h *PostHandler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	slug := mux.Vars(r)["slug"]

	post, err := h.svc.GetBySlug(r.Context(), slug)
	if err != nil {
		log.Warn("posts: пост не найден", zap.String("slug", slug), zap.Error(err))
		serviceError(w, err)
		return
	}

	log.Info("posts: пост получен", zap.String("slug", slug))
	helpers.JSON(w, http.StatusOK, post)
}

// RelatedPosts
// @Summary      Свежие посты для сайдбара
// @Description  Читает только кэш metadata/latestPosts, текущий slug исключается
// @Tags         posts
// @Produce      json
// @Param        slug  path  string true  "Slug текущего поста"
// @Param        limit query int    false "Сколько отдать (по умолчанию 4)"
// @Success      200 {array} models.LatestPostEntry
// @Router       /api/posts/{slug}/related [get]
func (h *PostHandler) RelatedPosts(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	slug := mux.Vars(r)["slug"]

	limit := 4
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	entries, err := h.svc.LatestExcluding(r.Context(), slug, limit)
	if err != nil {
		log.Error("posts: ошибка чтения кэша последних постов", zap.Error(err))
		serviceError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, entries)
}

// ListByTab
// @Summary      Посты вкладки, сгруппированные по разделам
// @Description  Разделы без постов присутствуют с пустым списком
// @Tags         posts
// @Produce      json
// @Param        slug path string true "Slug вкладки"
// @Success      200 {object} models.TabPosts
// @Failure      404 {object} map[string]string
// @Router       /api/tabs/{slug}/posts [get]
func (h *PostHandler) ListByTab(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	slug := mux.Vars(r)["slug"]

	grouped, err := h.svc.ListByTaxonomy(r.Context(), slug)
	if err != nil {
		log.Warn("posts: ошибка группировки по вкладке", zap.String("tab_slug", slug), zap.Error(err))
		serviceError(w, err)
		return
	}

	log.Info("posts: посты вкладки получены",
		zap.String("tab_slug", slug), zap.Int("sections_count", len(grouped.Sections)))
	helpers.JSON(w, http.StatusOK, grouped)
}

// HomePosts
// @Summary      Раскладка главной страницы
// @Description  Посты по post_type: feature / recommended / spotlight
// @Tags         posts
// @Produce      json
// @Success      200 {object} models.HomePosts
// @Router       /api/home [get]
func (h *PostHandler) HomePosts(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	home, err := h.svc.Home(r.Context())
	if err != nil {
		log.Error("posts: ошибка сборки главной", zap.Error(err))
		serviceError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, home)
}
