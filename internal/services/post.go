package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"uninews/internal/config"
	"uninews/internal/logger"
	"uninews/internal/models"
	"uninews/internal/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PostRepo interface {
	Create(ctx context.Context, p *models.Post) (int, error)
	Update(ctx context.Context, p *models.Post) error
	UpdateImageURL(ctx context.Context, id int, url string) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListByTabSlug(ctx context.Context, tabSlug string) ([]*models.Post, error)
	ListAll(ctx context.Context) ([]*models.Post, error)
	ListLatest(ctx context.Context, limit int) ([]*models.Post, error)
}

type TabProvider interface {
	GetTabByID(ctx context.Context, id int) (*models.Tab, error)
	GetTabBySlug(ctx context.Context, slug string) (*models.Tab, error)
}

type MetadataRepo interface {
	GetLatestPosts(ctx context.Context) ([]models.LatestPostEntry, error)
	SetLatestPosts(ctx context.Context, entries []models.LatestPostEntry) error
}

type UserProvider interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type BlobStorage interface {
	SaveDataURL(objectPath, dataURL string) (string, error)
}

type Renderer interface {
	RevalidatePath(ctx context.Context, path string) error
}

// PostService — создание/правка постов и их чтение по таксономии. Запись
// всегда идёт от имени аутентифицированного пользователя, роль которого
// перепроверяется по базе: payload токена сам по себе не доверенный сигнал.
type PostService struct {
	repo     PostRepo
	tabs     TabProvider
	meta     MetadataRepo
	users    UserProvider
	storage  BlobStorage
	renderer Renderer

	cacheLimit      int
	refreshOnCreate bool
	refreshOnUpdate bool
	refreshOnDelete bool
}

func NewPostService(
	repo PostRepo,
	tabs TabProvider,
	meta MetadataRepo,
	users UserProvider,
	storage BlobStorage,
	renderer Renderer,
	cfg *config.Config,
) *PostService {
	limit, err := strconv.Atoi(cfg.LatestPostsLimit)
	if err != nil || limit <= 0 {
		limit = 5
	}
	return &PostService{
		repo:            repo,
		tabs:            tabs,
		meta:            meta,
		users:           users,
		storage:         storage,
		renderer:        renderer,
		cacheLimit:      limit,
		refreshOnCreate: cfg.RefreshCacheOn("create"),
		refreshOnUpdate: cfg.RefreshCacheOn("update"),
		refreshOnDelete: cfg.RefreshCacheOn("delete"),
	}
}

// Create пишет пост и возвращает его id. Порядок строго последовательный:
// документ -> картинка -> кэш -> перегенерация страниц. Всё после записи
// документа — best-effort: пост уже создан и откатывать его не надо.
func (s *PostService) Create(ctx context.Context, authorID int, req *models.CreatePostRequest) (int, error) {
	author, err := s.requireAdmin(ctx, authorID)
	if err != nil {
		return 0, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return 0, fmt.Errorf("%w: заголовок обязателен", ErrValidation)
	}
	tab, section, err := s.resolveTaxonomy(ctx, req.TabID, req.SectionSlug)
	if err != nil {
		return 0, err
	}
	postType, err := normalizePostType(req.PostType)
	if err != nil {
		return 0, err
	}

	post := &models.Post{
		Title:       title,
		Content:     req.Content,
		Slug:        utils.Slugify(title),
		AuthorID:    author.ID,
		AuthorName:  author.DisplayName,
		TabID:       tab.ID,
		TabSlug:     tab.Slug,
		SectionSlug: section.Slug,
		PostType:    postType,
		// Календарная дата, не таймстемп: формат совпадает с уже
		// сохранёнными значениями, иначе поедет сортировка.
		PubDate:  time.Now().Format("2006-01-02"),
		Comments: []models.Comment{},
	}

	id, err := s.repo.Create(ctx, post)
	if err != nil {
		logger.Log.Error("Сервис: ошибка создания поста", zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	logger.Log.Info("Сервис: пост создан", zap.Int("post_id", id), zap.String("slug", post.Slug))

	if req.CoverPhoto != "" {
		s.attachImage(ctx, id, req.CoverPhoto)
	}

	if s.refreshOnCreate {
		s.rebuildLatestCache(ctx)
	}

	s.revalidatePages(ctx, "/", "/posts/"+post.Slug)
	return id, nil
}

// Update перечитывает slug из заголовка при каждой правке и при замене
// картинки повторяет загрузку в то же место (путь ключуется id поста).
func (s *PostService) Update(ctx context.Context, userID, id int, req *models.UpdatePostRequest) error {
	if _, err := s.requireAdmin(ctx, userID); err != nil {
		return err
	}

	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return fmt.Errorf("%w: заголовок обязателен", ErrValidation)
	}
	tab, section, err := s.resolveTaxonomy(ctx, req.TabID, req.SectionSlug)
	if err != nil {
		return err
	}
	postType, err := normalizePostType(req.PostType)
	if err != nil {
		return err
	}

	post.Title = title
	post.Content = req.Content
	post.Slug = utils.Slugify(title)
	post.TabID = tab.ID
	post.TabSlug = tab.Slug
	post.SectionSlug = section.Slug
	post.PostType = postType

	if err := s.repo.Update(ctx, post); err != nil {
		logger.Log.Error("Сервис: ошибка обновления поста", zap.Int("post_id", id), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	logger.Log.Info("Сервис: пост обновлён", zap.Int("post_id", id))

	if strings.HasPrefix(req.CoverPhoto, "data:") {
		s.attachImage(ctx, id, req.CoverPhoto)
	}

	if s.refreshOnUpdate {
		s.rebuildLatestCache(ctx)
	}

	s.revalidatePages(ctx, "/posts/"+post.Slug)
	return nil
}

func (s *PostService) Delete(ctx context.Context, userID, id int) error {
	if _, err := s.requireAdmin(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		logger.Log.Error("Сервис: ошибка удаления поста", zap.Int("post_id", id), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	logger.Log.Info("Сервис: пост удалён", zap.Int("post_id", id))

	if s.refreshOnDelete {
		s.rebuildLatestCache(ctx)
	}

	s.revalidatePages(ctx, "/")
	return nil
}

// ----- Чтение -----

func (s *PostService) GetByID(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: пост %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: пост %q", ErrNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ListByTaxonomy — посты вкладки, сгруппированные по разделам в порядке
// разделов вкладки. Пустые разделы присутствуют в ответе с пустым списком.
func (s *PostService) ListByTaxonomy(ctx context.Context, tabSlug string) (*models.TabPosts, error) {
	tab, err := s.tabs.GetTabBySlug(ctx, tabSlug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: вкладка %q", ErrNotFound, tabSlug)
	}
	if err != nil {
		return nil, err
	}

	posts, err := s.repo.ListByTabSlug(ctx, tabSlug)
	if err != nil {
		return nil, err
	}

	out := &models.TabPosts{Tab: *tab, Sections: make([]models.SectionPosts, 0, len(tab.Sections))}
	for _, sec := range tab.Sections {
		group := models.SectionPosts{Section: sec, Posts: []*models.Post{}}
		for _, p := range posts {
			if p.SectionSlug == sec.Slug {
				group.Posts = append(group.Posts, p)
			}
		}
		out.Sections = append(out.Sections, group)
	}
	return out, nil
}

// LatestExcluding читает только кэш metadata/latestPosts — в коллекцию постов
// не ходит, возможное отставание кэша здесь осознанное.
func (s *PostService) LatestExcluding(ctx context.Context, slug string, n int) ([]models.LatestPostEntry, error) {
	entries, err := s.meta.GetLatestPosts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.LatestPostEntry, 0, n)
	for _, e := range entries {
		if e.Slug == slug {
			continue
		}
		out = append(out, e)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// Home — раскладка главной по post_type.
func (s *PostService) Home(ctx context.Context) (*models.HomePosts, error) {
	posts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	home := &models.HomePosts{
		Recommended: []*models.Post{},
		Spotlight:   []*models.Post{},
	}
	for _, p := range posts {
		switch p.PostType {
		case models.PostTypeFeature:
			if home.Feature == nil {
				home.Feature = p
			}
		case models.PostTypeRecommended:
			home.Recommended = append(home.Recommended, p)
		case models.PostTypeSpotlight:
			home.Spotlight = append(home.Spotlight, p)
		}
	}
	return home, nil
}

// AdminSearch фильтрует в памяти по всему набору: подстрока в title или
// section_slug без учёта регистра плюс точный фильтр по вкладке. Нормально,
// пока постов тысячи, а не миллионы.
func (s *PostService) AdminSearch(ctx context.Context, search, tabSlug string) ([]*models.Post, error) {
	posts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.SectionSlug), needle) {
			continue
		}
		if tabSlug != "" && tabSlug != "all" && p.TabSlug != tabSlug {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ----- Внутреннее -----

func (s *PostService) requireAdmin(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: пользователь не найден", ErrNotAllowed)
	}
	if user.Role != "admin" {
		return nil, fmt.Errorf("%w: требуется роль admin", ErrNotAllowed)
	}
	return user, nil
}

func (s *PostService) resolveTaxonomy(ctx context.Context, tabID int, sectionSlug string) (*models.Tab, *models.Section, error) {
	if tabID == 0 || sectionSlug == "" {
		return nil, nil, fmt.Errorf("%w: не выбраны вкладка и раздел", ErrValidation)
	}

	tab, err := s.tabs.GetTabByID(ctx, tabID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: вкладка %d не существует", ErrValidation, tabID)
	}
	if err != nil {
		return nil, nil, err
	}

	for i := range tab.Sections {
		if tab.Sections[i].Slug == sectionSlug {
			return tab, &tab.Sections[i], nil
		}
	}
	return nil, nil, fmt.Errorf("%w: раздел %q не найден во вкладке %q", ErrValidation, sectionSlug, tab.Slug)
}

func normalizePostType(t string) (string, error) {
	switch t {
	case "", models.PostTypeNone:
		return models.PostTypeNone, nil
	case models.PostTypeFeature, models.PostTypeRecommended, models.PostTypeSpotlight:
		return t, nil
	default:
		return "", fmt.Errorf("%w: неизвестный post_type %q", ErrValidation, t)
	}
}

// attachImage — вторая фаза записи: загрузка картинки и патч image_url.
// Сбой оставляет пост без картинки навсегда, это допустимое деградированное
// состояние; повторная правка поста перезальёт файл в тот же путь.
func (s *PostService) attachImage(ctx context.Context, postID int, dataURL string) {
	url, err := s.storage.SaveDataURL(fmt.Sprintf("posts/%d/image", postID), dataURL)
	if err != nil {
		logger.Log.Warn("Сервис: не удалось загрузить картинку поста",
			zap.Int("post_id", postID), zap.Error(err))
		return
	}
	if err := s.repo.UpdateImageURL(ctx, postID, url); err != nil {
		logger.Log.Warn("Сервис: не удалось сохранить ссылку на картинку",
			zap.Int("post_id", postID), zap.Error(err))
		return
	}
	logger.Log.Info("Сервис: картинка поста загружена", zap.Int("post_id", postID))
}

// rebuildLatestCache собирает N самых свежих постов и перезаписывает документ
// кэша целиком. Гонка двух одновременных пересборок разрешается как
// last-write-wins — кэш справочный, не авторитетный.
func (s *PostService) rebuildLatestCache(ctx context.Context) {
	posts, err := s.repo.ListLatest(ctx, s.cacheLimit)
	if err != nil {
		logger.Log.Error("Сервис: не удалось прочитать свежие посты для кэша", zap.Error(err))
		return
	}

	entries := make([]models.LatestPostEntry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, models.LatestPostEntry{
			ID:       p.ID,
			Title:    p.Title,
			Slug:     p.Slug,
			PubDate:  p.PubDate,
			ImageURL: p.ImageURL,
		})
	}

	if err := s.meta.SetLatestPosts(ctx, entries); err != nil {
		logger.Log.Error("Сервис: не удалось перезаписать кэш последних постов", zap.Error(err))
		return
	}
	logger.Log.Info("Сервис: кэш последних постов пересобран", zap.Int("count", len(entries)))
}

// revalidatePages — best-effort: контент уже записан, сбой перегенерации
// только логируется.
func (s *PostService) revalidatePages(ctx context.Context, paths ...string) {
	for _, path := range paths {
		if err := s.renderer.RevalidatePath(ctx, path); err != nil {
			logger.Log.Warn("Сервис: перегенерация страницы не удалась",
				zap.String("path", path), zap.Error(err))
		}
	}
}
