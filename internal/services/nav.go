package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"uninews/internal/logger"
	"uninews/internal/models"
	"uninews/internal/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type NavRepo interface {
	CreateTab(ctx context.Context, t *models.Tab) (int, error)
	UpdateTab(ctx context.Context, t *models.Tab) error
	DeleteTab(ctx context.Context, id int) error
	GetTabByID(ctx context.Context, id int) (*models.Tab, error)
	GetTabBySlug(ctx context.Context, slug string) (*models.Tab, error)
	ListTabs(ctx context.Context) ([]*models.Tab, error)
	CountTabs(ctx context.Context) (int, error)
	TabSlugExists(ctx context.Context, slug string) (bool, error)
}

// NavService — CRUD по вкладкам/разделам навигации плюс рассылка полных
// снапшотов подписчикам после каждой мутации. Подписка явная
// (Subscribe/Unsubscribe), каждый снапшот — целиком актуальный список
// вкладок, никакой дифф-логики.
type NavService struct {
	repo NavRepo

	mu      sync.Mutex
	subs    map[int]chan []*models.Tab
	nextSub int
}

func NewNavService(repo NavRepo) *NavService {
	return &NavService{
		repo: repo,
		subs: make(map[int]chan []*models.Tab),
	}
}

func (s *NavService) CreateTab(ctx context.Context, req *models.CreateTabRequest) (*models.Tab, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: заголовок вкладки обязателен", ErrValidation)
	}

	slug := utils.Slugify(title)
	if exists, err := s.repo.TabSlugExists(ctx, slug); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: вкладка со slug %q уже существует", ErrValidation, slug)
	}

	// position = текущее число вкладок + 1; после удалений возможны дубли —
	// это терпимо, хвостовая сортировка по id разрешает их стабильно.
	count, err := s.repo.CountTabs(ctx)
	if err != nil {
		return nil, err
	}

	sections := make([]models.Section, 0, len(req.Sections))
	for _, st := range req.Sections {
		st = strings.TrimSpace(st)
		if st == "" {
			continue
		}
		sections = append(sections, models.Section{Title: st, Slug: utils.Slugify(st)})
	}

	tab := &models.Tab{
		Title:     title,
		Slug:      slug,
		Order:     count + 1,
		AdminOnly: req.AdminOnly,
		Sections:  sections,
	}

	id, err := s.repo.CreateTab(ctx, tab)
	if err != nil {
		logger.Log.Error("Сервис: ошибка создания вкладки", zap.Error(err))
		return nil, err
	}
	tab.ID = id

	logger.Log.Info("Сервис: вкладка создана", zap.Int("tab_id", id), zap.String("slug", slug))
	s.broadcast(ctx)
	return tab, nil
}

// UpdateTab переписывает заголовок, разделы (slug каждого выводится заново из
// заголовка) и флаг admin_only. Slug и позиция вкладки не меняются. Слияния
// нет: побеждает последняя запись.
func (s *NavService) UpdateTab(ctx context.Context, id int, req *models.UpdateTabRequest) error {
	tab, err := s.getTab(ctx, id)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return fmt.Errorf("%w: заголовок вкладки обязателен", ErrValidation)
	}

	sections := make([]models.Section, 0, len(req.Sections))
	for _, sec := range req.Sections {
		sections = append(sections, models.Section{
			Title: sec.Title,
			Slug:  utils.Slugify(sec.Title),
		})
	}

	tab.Title = title
	tab.Sections = sections
	tab.AdminOnly = req.AdminOnly

	if err := s.repo.UpdateTab(ctx, tab); err != nil {
		logger.Log.Error("Сервис: ошибка обновления вкладки", zap.Int("tab_id", id), zap.Error(err))
		return err
	}

	logger.Log.Info("Сервис: вкладка обновлена", zap.Int("tab_id", id))
	s.broadcast(ctx)
	return nil
}

// DeleteTab удаляет вкладку безвозвратно. Посты, ссылающиеся на её слоги,
// не трогаются — осиротевшие ссылки терпимы.
func (s *NavService) DeleteTab(ctx context.Context, id int) error {
	if err := s.repo.DeleteTab(ctx, id); err != nil {
		logger.Log.Error("Сервис: ошибка удаления вкладки", zap.Int("tab_id", id), zap.Error(err))
		return err
	}

	logger.Log.Info("Сервис: вкладка удалена", zap.Int("tab_id", id))
	s.broadcast(ctx)
	return nil
}

// AddSection дописывает раздел в конец списка. Коллизии слогов внутри
// вкладки сознательно не проверяются — так вёл себя старый интерфейс.
func (s *NavService) AddSection(ctx context.Context, tabID int, title string) (models.Section, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Section{}, fmt.Errorf("%w: название раздела обязательно", ErrValidation)
	}

	tab, err := s.getTab(ctx, tabID)
	if err != nil {
		return models.Section{}, err
	}

	sec := models.Section{Title: title, Slug: utils.Slugify(title)}
	tab.Sections = append(tab.Sections, sec)

	if err := s.repo.UpdateTab(ctx, tab); err != nil {
		logger.Log.Error("Сервис: ошибка добавления раздела", zap.Int("tab_id", tabID), zap.Error(err))
		return models.Section{}, err
	}

	logger.Log.Info("Сервис: раздел добавлен", zap.Int("tab_id", tabID), zap.String("slug", sec.Slug))
	s.broadcast(ctx)
	return sec, nil
}

// UpdateSection правит раздел по позиции в списке — собственного id у
// разделов нет, поэтому перезаписывается вся вкладка.
func (s *NavService) UpdateSection(ctx context.Context, tabID, index int, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: название раздела обязательно", ErrValidation)
	}

	tab, err := s.getTab(ctx, tabID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tab.Sections) {
		return fmt.Errorf("%w: индекс раздела %d вне диапазона", ErrValidation, index)
	}

	tab.Sections[index] = models.Section{Title: title, Slug: utils.Slugify(title)}

	if err := s.repo.UpdateTab(ctx, tab); err != nil {
		logger.Log.Error("Сервис: ошибка обновления раздела", zap.Int("tab_id", tabID), zap.Error(err))
		return err
	}

	logger.Log.Info("Сервис: раздел обновлён", zap.Int("tab_id", tabID), zap.Int("index", index))
	s.broadcast(ctx)
	return nil
}

func (s *NavService) DeleteSection(ctx context.Context, tabID, index int) error {
	tab, err := s.getTab(ctx, tabID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tab.Sections) {
		return fmt.Errorf("%w: индекс раздела %d вне диапазона", ErrValidation, index)
	}

	tab.Sections = append(tab.Sections[:index], tab.Sections[index+1:]...)

	if err := s.repo.UpdateTab(ctx, tab); err != nil {
		logger.Log.Error("Сервис: ошибка удаления раздела", zap.Int("tab_id", tabID), zap.Error(err))
		return err
	}

	logger.Log.Info("Сервис: раздел удалён", zap.Int("tab_id", tabID), zap.Int("index", index))
	s.broadcast(ctx)
	return nil
}

// ListTabs отдаёт вкладки по позиции; без админских прав admin_only-вкладки
// скрываются.
func (s *NavService) ListTabs(ctx context.Context, includeAdminOnly bool) ([]*models.Tab, error) {
	tabs, err := s.repo.ListTabs(ctx)
	if err != nil {
		return nil, err
	}
	if includeAdminOnly {
		return tabs, nil
	}

	visible := make([]*models.Tab, 0, len(tabs))
	for _, t := range tabs {
		if !t.AdminOnly {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

func (s *NavService) getTab(ctx context.Context, id int) (*models.Tab, error) {
	tab, err := s.repo.GetTabByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: вкладка %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return tab, nil
}

// ----- Подписка на изменения -----

// Subscribe регистрирует подписчика; канал буферизован на один снапшот,
// отстающий потребитель получает только самое свежее состояние.
func (s *NavService) Subscribe() (int, <-chan []*models.Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	ch := make(chan []*models.Tab, 1)
	s.subs[id] = ch
	return id, ch
}

func (s *NavService) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *NavService) broadcast(ctx context.Context) {
	snapshot, err := s.repo.ListTabs(ctx)
	if err != nil {
		logger.Log.Error("Сервис: не удалось собрать снапшот навигации", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		// Вытесняем непрочитанный снапшот — подписчику важно только текущее.
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
