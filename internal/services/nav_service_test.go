package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"uninews/internal/models"

	"github.com/jackc/pgx/v5"
)

// Мок-репозиторий навигации (заглушка)
type mockNavRepo struct {
	tabs   map[int]*models.Tab
	nextID int
}

func newMockNavRepo() *mockNavRepo {
	return &mockNavRepo{tabs: make(map[int]*models.Tab)}
}

func (m *mockNavRepo) CreateTab(_ context.Context, t *models.Tab) (int, error) {
	m.nextID++
	cp := *t
	cp.ID = m.nextID
	m.tabs[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockNavRepo) UpdateTab(_ context.Context, t *models.Tab) error {
	if _, ok := m.tabs[t.ID]; !ok {
		return errors.New("not found")
	}
	cp := *t
	m.tabs[t.ID] = &cp
	return nil
}

func (m *mockNavRepo) DeleteTab(_ context.Context, id int) error {
	delete(m.tabs, id)
	return nil
}

func (m *mockNavRepo) GetTabByID(_ context.Context, id int) (*models.Tab, error) {
	t, ok := m.tabs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockNavRepo) GetTabBySlug(_ context.Context, slug string) (*models.Tab, error) {
	for _, t := range m.tabs {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockNavRepo) ListTabs(_ context.Context) ([]*models.Tab, error) {
	out := make([]*models.Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockNavRepo) CountTabs(_ context.Context) (int, error) {
	return len(m.tabs), nil
}

func (m *mockNavRepo) TabSlugExists(_ context.Context, slug string) (bool, error) {
	for _, t := range m.tabs {
		if t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func TestCreateTab(t *testing.T) {
	svc := NewNavService(newMockNavRepo())

	tab, err := svc.CreateTab(context.Background(), &models.CreateTabRequest{
		Title:    "Student Life",
		Sections: []string{"Alpha", "Campus Events"},
	})
	if err != nil {
		t.Fatalf("ошибка создания вкладки: %v", err)
	}

	if tab.Slug != "student-life" {
		t.Errorf("slug вкладки = %q, ожидалось student-life", tab.Slug)
	}
	if tab.Order != 1 {
		t.Errorf("позиция = %d, ожидалось 1", tab.Order)
	}
	if len(tab.Sections) != 2 || tab.Sections[0].Slug != "alpha" || tab.Sections[1].Slug != "campus-events" {
		t.Errorf("разделы не слагифицированы: %+v", tab.Sections)
	}
}

func TestCreateTab_EmptyTitle(t *testing.T) {
	svc := NewNavService(newMockNavRepo())

	_, err := svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидалась ErrValidation, получено: %v", err)
	}
}

func TestCreateTab_DuplicateSlug(t *testing.T) {
	svc := NewNavService(newMockNavRepo())

	if _, err := svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "News"}); err != nil {
		t.Fatalf("ошибка создания вкладки: %v", err)
	}
	_, err := svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "News"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("дубликат slug должен давать ErrValidation, получено: %v", err)
	}
}

func TestUpdateTab_KeepsSlugAndOrder(t *testing.T) {
	repo := newMockNavRepo()
	svc := NewNavService(repo)

	tab, err := svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "Research"})
	if err != nil {
		t.Fatalf("ошибка создания вкладки: %v", err)
	}

	err = svc.UpdateTab(context.Background(), tab.ID, &models.UpdateTabRequest{
		Title:    "Science",
		Sections: []models.Section{{Title: "New Section"}},
	})
	if err != nil {
		t.Fatalf("ошибка обновления вкладки: %v", err)
	}

	got := repo.tabs[tab.ID]
	if got.Slug != "research" {
		t.Errorf("slug вкладки изменился при обновлении: %q", got.Slug)
	}
	if got.Order != 1 {
		t.Errorf("позиция изменилась при обновлении: %d", got.Order)
	}
	if got.Title != "Science" {
		t.Errorf("заголовок не обновился: %q", got.Title)
	}
	if len(got.Sections) != 1 || got.Sections[0].Slug != "new-section" {
		t.Errorf("разделы не перезаписаны: %+v", got.Sections)
	}
}

func TestUpdateTab_LastWriteWins(t *testing.T) {
	repo := newMockNavRepo()
	svc := NewNavService(repo)

	tab, _ := svc.CreateTab(context.Background(), &models.CreateTabRequest{
		Title:    "Events",
		Sections: []string{"One", "Two"},
	})

	// Две последовательные перезаписи — остаётся только последняя.
	_ = svc.UpdateTab(context.Background(), tab.ID, &models.UpdateTabRequest{
		Title:    "Events",
		Sections: []models.Section{{Title: "First Edit"}},
	})
	_ = svc.UpdateTab(context.Background(), tab.ID, &models.UpdateTabRequest{
		Title:    "Events",
		Sections: []models.Section{{Title: "Second Edit"}},
	})

	got := repo.tabs[tab.ID]
	if len(got.Sections) != 1 || got.Sections[0].Slug != "second-edit" {
		t.Errorf("ожидалась только последняя запись разделов, получено: %+v", got.Sections)
	}
}

func TestSections_PositionalOps(t *testing.T) {
	repo := newMockNavRepo()
	svc := NewNavService(repo)

	tab, _ := svc.CreateTab(context.Background(), &models.CreateTabRequest{
		Title:    "Campus",
		Sections: []string{"A", "B", "C"},
	})

	if err := svc.UpdateSection(context.Background(), tab.ID, 1, "B Updated"); err != nil {
		t.Fatalf("ошибка обновления раздела: %v", err)
	}
	if got := repo.tabs[tab.ID].Sections[1].Slug; got != "b-updated" {
		t.Errorf("раздел по индексу 1 не обновился: %q", got)
	}

	if err := svc.DeleteSection(context.Background(), tab.ID, 0); err != nil {
		t.Fatalf("ошибка удаления раздела: %v", err)
	}
	secs := repo.tabs[tab.ID].Sections
	if len(secs) != 2 || secs[0].Slug != "b-updated" {
		t.Errorf("после удаления по индексу 0 список неверен: %+v", secs)
	}

	// Индекс вне диапазона — валидационная ошибка.
	if err := svc.UpdateSection(context.Background(), tab.ID, 5, "X"); !errors.Is(err, ErrValidation) {
		t.Errorf("индекс вне диапазона должен давать ErrValidation, получено: %v", err)
	}
}

func TestAddSection(t *testing.T) {
	repo := newMockNavRepo()
	svc := NewNavService(repo)

	tab, _ := svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "Sports"})

	sec, err := svc.AddSection(context.Background(), tab.ID, "Basket Ball")
	if err != nil {
		t.Fatalf("ошибка добавления раздела: %v", err)
	}
	if sec.Slug != "basket-ball" {
		t.Errorf("slug раздела = %q, ожидалось basket-ball", sec.Slug)
	}
	if len(repo.tabs[tab.ID].Sections) != 1 {
		t.Errorf("раздел не сохранён во вкладке")
	}
}

func TestListTabs_HidesAdminOnly(t *testing.T) {
	svc := NewNavService(newMockNavRepo())

	_, _ = svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "Public"})
	_, _ = svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "Drafts", AdminOnly: true})

	visible, err := svc.ListTabs(context.Background(), false)
	if err != nil {
		t.Fatalf("ошибка получения вкладок: %v", err)
	}
	if len(visible) != 1 || visible[0].Slug != "public" {
		t.Errorf("admin_only вкладка не скрыта: %+v", visible)
	}

	all, _ := svc.ListTabs(context.Background(), true)
	if len(all) != 2 {
		t.Errorf("администратор должен видеть все вкладки, получено %d", len(all))
	}
}

func TestSubscribe_ReceivesSnapshot(t *testing.T) {
	svc := NewNavService(newMockNavRepo())

	id, updates := svc.Subscribe()
	defer svc.Unsubscribe(id)

	if _, err := svc.CreateTab(context.Background(), &models.CreateTabRequest{Title: "Live"}); err != nil {
		t.Fatalf("ошибка создания вкладки: %v", err)
	}

	select {
	case snapshot := <-updates:
		if len(snapshot) != 1 || snapshot[0].Slug != "live" {
			t.Errorf("снапшот неверен: %+v", snapshot)
		}
	default:
		t.Fatal("подписчик не получил снапшот после мутации")
	}
}

func TestGetTab_NotFound(t *testing.T) {
	svc := NewNavService(newMockNavRepo())

	err := svc.UpdateTab(context.Background(), 42, &models.UpdateTabRequest{Title: "X"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено: %v", err)
	}
}
