package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"uninews/internal/config"
	"uninews/internal/models"

	"github.com/jackc/pgx/v5"
)

// ----- Заглушки -----

type mockPostRepo struct {
	posts  map[int]*models.Post
	nextID int
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[int]*models.Post)}
}

func (m *mockPostRepo) Create(_ context.Context, p *models.Post) (int, error) {
	m.nextID++
	cp := *p
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	m.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockPostRepo) Update(_ context.Context, p *models.Post) error {
	if _, ok := m.posts[p.ID]; !ok {
		return errors.New("not found")
	}
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *mockPostRepo) UpdateImageURL(_ context.Context, id int, url string) error {
	p, ok := m.posts[id]
	if !ok {
		return errors.New("not found")
	}
	p.ImageURL = url
	return nil
}

func (m *mockPostRepo) Delete(_ context.Context, id int) error {
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id int) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPostRepo) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	// При коллизии отдаётся более поздний — как в настоящем запросе.
	var latest *models.Post
	for _, p := range m.posts {
		if p.Slug != slug {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (m *mockPostRepo) sorted() []*models.Post {
	out := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PubDate != out[j].PubDate {
			return out[i].PubDate > out[j].PubDate
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *mockPostRepo) ListByTabSlug(_ context.Context, tabSlug string) ([]*models.Post, error) {
	out := make([]*models.Post, 0)
	for _, p := range m.sorted() {
		if p.TabSlug == tabSlug {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPostRepo) ListAll(_ context.Context) ([]*models.Post, error) {
	return m.sorted(), nil
}

func (m *mockPostRepo) ListLatest(_ context.Context, limit int) ([]*models.Post, error) {
	all := m.sorted()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type mockTabProvider struct {
	tabs map[int]*models.Tab
}

func (m *mockTabProvider) GetTabByID(_ context.Context, id int) (*models.Tab, error) {
	t, ok := m.tabs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockTabProvider) GetTabBySlug(_ context.Context, slug string) (*models.Tab, error) {
	for _, t := range m.tabs {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type mockMetaRepo struct {
	entries []models.LatestPostEntry
	writes  int
}

func (m *mockMetaRepo) GetLatestPosts(_ context.Context) ([]models.LatestPostEntry, error) {
	return m.entries, nil
}

func (m *mockMetaRepo) SetLatestPosts(_ context.Context, entries []models.LatestPostEntry) error {
	m.entries = entries
	m.writes++
	return nil
}

type mockUserProvider struct {
	users map[int]*models.User
}

func (m *mockUserProvider) GetUserByID(_ context.Context, id int) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type mockBlobStorage struct {
	fail  bool
	saved []string
}

func (m *mockBlobStorage) SaveDataURL(objectPath, _ string) (string, error) {
	if m.fail {
		return "", errors.New("storage unavailable")
	}
	m.saved = append(m.saved, objectPath)
	return "http://files.local/" + objectPath, nil
}

type mockRenderer struct {
	paths []string
	fail  bool
}

func (m *mockRenderer) RevalidatePath(_ context.Context, path string) error {
	if m.fail {
		return errors.New("render layer down")
	}
	m.paths = append(m.paths, path)
	return nil
}

// ----- Обвязка -----

type postFixture struct {
	repo     *mockPostRepo
	tabs     *mockTabProvider
	meta     *mockMetaRepo
	users    *mockUserProvider
	storage  *mockBlobStorage
	renderer *mockRenderer
	svc      *PostService
}

func newPostFixture() *postFixture {
	f := &postFixture{
		repo: newMockPostRepo(),
		tabs: &mockTabProvider{tabs: map[int]*models.Tab{
			1: {
				ID:    1,
				Title: "News",
				Slug:  "news",
				Order: 1,
				Sections: []models.Section{
					{Title: "Campus", Slug: "campus"},
					{Title: "Science", Slug: "science"},
				},
			},
		}},
		meta: &mockMetaRepo{},
		users: &mockUserProvider{users: map[int]*models.User{
			1: {ID: 1, Role: "admin", DisplayName: "Админ"},
			2: {ID: 2, Role: "user", DisplayName: "Студент"},
		}},
		storage:  &mockBlobStorage{},
		renderer: &mockRenderer{},
	}

	cfg := &config.Config{CacheRefreshOn: "create", LatestPostsLimit: "5"}
	f.svc = NewPostService(f.repo, f.tabs, f.meta, f.users, f.storage, f.renderer, cfg)
	return f
}

func (f *postFixture) createPost(t *testing.T, title string) int {
	t.Helper()
	id, err := f.svc.Create(context.Background(), 1, &models.CreatePostRequest{
		Title:       title,
		Content:     "текст",
		TabID:       1,
		SectionSlug: "campus",
	})
	if err != nil {
		t.Fatalf("ошибка создания поста %q: %v", title, err)
	}
	return id
}

// ----- Тесты -----

func TestCreatePost(t *testing.T) {
	f := newPostFixture()

	id := f.createPost(t, "Open Day Announced")

	post := f.repo.posts[id]
	if post.Slug != "open-day-announced" {
		t.Errorf("slug = %q, ожидалось open-day-announced", post.Slug)
	}
	if post.PubDate != time.Now().Format("2006-01-02") {
		t.Errorf("pub_date = %q, ожидалась сегодняшняя дата", post.PubDate)
	}
	if post.AuthorName != "Админ" {
		t.Errorf("author_name = %q", post.AuthorName)
	}
	if post.Comments == nil || len(post.Comments) != 0 {
		t.Errorf("новый пост должен иметь пустой список комментариев")
	}
}

func TestCreatePost_NonAdmin(t *testing.T) {
	f := newPostFixture()

	_, err := f.svc.Create(context.Background(), 2, &models.CreatePostRequest{
		Title: "Hack", TabID: 1, SectionSlug: "campus",
	})
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("ожидалась ErrNotAllowed, получено: %v", err)
	}
	if len(f.repo.posts) != 0 {
		t.Error("пост не должен был записаться")
	}
	if f.meta.writes != 0 {
		t.Error("кэш не должен был пересобираться")
	}
}

func TestCreatePost_BadTaxonomy(t *testing.T) {
	f := newPostFixture()

	_, err := f.svc.Create(context.Background(), 1, &models.CreatePostRequest{
		Title: "X", TabID: 1, SectionSlug: "no-such-section",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("несуществующий раздел должен давать ErrValidation, получено: %v", err)
	}

	_, err = f.svc.Create(context.Background(), 1, &models.CreatePostRequest{
		Title: "X", TabID: 99, SectionSlug: "campus",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("несуществующая вкладка должна давать ErrValidation, получено: %v", err)
	}
}

func TestCreatePost_RefreshesCache(t *testing.T) {
	f := newPostFixture()

	f.createPost(t, "Cache Me")

	if f.meta.writes != 1 {
		t.Fatalf("кэш должен пересобираться на create, writes = %d", f.meta.writes)
	}
	if len(f.meta.entries) != 1 || f.meta.entries[0].Slug != "cache-me" {
		t.Errorf("кэш не содержит новый пост: %+v", f.meta.entries)
	}
}

func TestCreatePost_CacheDisplacement(t *testing.T) {
	f := newPostFixture()

	for i := 0; i < 6; i++ {
		f.createPost(t, fmt.Sprintf("Post Number %d", i))
	}

	if len(f.meta.entries) != 5 {
		t.Fatalf("кэш должен держать не больше 5 записей, получено %d", len(f.meta.entries))
	}
	for _, e := range f.meta.entries {
		if e.Slug == "post-number-0" {
			t.Error("самый старый пост должен быть вытеснен из кэша")
		}
	}
}

func TestCreatePost_ImageFailureIsTolerated(t *testing.T) {
	f := newPostFixture()
	f.storage.fail = true

	id, err := f.svc.Create(context.Background(), 1, &models.CreatePostRequest{
		Title: "With Broken Image", TabID: 1, SectionSlug: "campus",
		CoverPhoto: "data:image/png;base64,aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("сбой загрузки картинки не должен ронять создание: %v", err)
	}
	if f.repo.posts[id].ImageURL != "" {
		t.Error("пост должен остаться без картинки")
	}
}

func TestCreatePost_AttachesImage(t *testing.T) {
	f := newPostFixture()

	id, err := f.svc.Create(context.Background(), 1, &models.CreatePostRequest{
		Title: "With Image", TabID: 1, SectionSlug: "campus",
		CoverPhoto: "data:image/png;base64,aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("ошибка создания поста: %v", err)
	}
	want := "http://files.local/posts/" + fmt.Sprint(id) + "/image"
	if f.repo.posts[id].ImageURL != want {
		t.Errorf("image_url = %q, ожидалось %q", f.repo.posts[id].ImageURL, want)
	}
}

func TestCreatePost_RevalidatesPages(t *testing.T) {
	f := newPostFixture()

	f.createPost(t, "Fresh News")

	if len(f.renderer.paths) != 2 || f.renderer.paths[0] != "/" || f.renderer.paths[1] != "/posts/fresh-news" {
		t.Errorf("ожидалась перегенерация / и /posts/fresh-news, получено: %v", f.renderer.paths)
	}
}

func TestCreatePost_RenderFailureIsTolerated(t *testing.T) {
	f := newPostFixture()
	f.renderer.fail = true

	id := f.createPost(t, "Still Created")
	if _, ok := f.repo.posts[id]; !ok {
		t.Fatal("пост должен существовать несмотря на сбой перегенерации")
	}
}

func TestUpdatePost_RecomputesSlug(t *testing.T) {
	f := newPostFixture()

	id := f.createPost(t, "Old Title")

	err := f.svc.Update(context.Background(), 1, id, &models.UpdatePostRequest{
		Title: "Brand New Title", TabID: 1, SectionSlug: "science",
	})
	if err != nil {
		t.Fatalf("ошибка обновления поста: %v", err)
	}

	post := f.repo.posts[id]
	if post.Slug != "brand-new-title" {
		t.Errorf("slug не пересчитан: %q", post.Slug)
	}
	if post.SectionSlug != "science" {
		t.Errorf("section_slug не обновился: %q", post.SectionSlug)
	}
}

func TestUpdatePost_CacheNotRefreshedByDefault(t *testing.T) {
	f := newPostFixture()

	id := f.createPost(t, "Initial")
	writesAfterCreate := f.meta.writes

	_ = f.svc.Update(context.Background(), 1, id, &models.UpdatePostRequest{
		Title: "Edited", TabID: 1, SectionSlug: "campus",
	})

	if f.meta.writes != writesAfterCreate {
		t.Errorf("с дефолтной настройкой update не должен трогать кэш")
	}
}

func TestLatestExcluding(t *testing.T) {
	f := newPostFixture()

	for i := 0; i < 5; i++ {
		f.createPost(t, fmt.Sprintf("Entry %d", i))
	}

	entries, err := f.svc.LatestExcluding(context.Background(), "entry-3", 4)
	if err != nil {
		t.Fatalf("ошибка чтения кэша: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("ожидалось 4 записи, получено %d", len(entries))
	}
	for _, e := range entries {
		if e.Slug == "entry-3" {
			t.Error("исключаемый slug попал в выдачу")
		}
	}
}

func TestGetBySlug_LaterPostShadows(t *testing.T) {
	f := newPostFixture()

	first := f.createPost(t, "Same Title")
	second := f.createPost(t, "Same Title")

	post, err := f.svc.GetBySlug(context.Background(), "same-title")
	if err != nil {
		t.Fatalf("ошибка чтения поста: %v", err)
	}
	if post.ID != second || post.ID == first {
		t.Errorf("при коллизии slug должен отдаваться более поздний пост, получен id=%d", post.ID)
	}
}

func TestListByTaxonomy_EmptySectionsKept(t *testing.T) {
	f := newPostFixture()

	f.createPost(t, "Campus Story")

	grouped, err := f.svc.ListByTaxonomy(context.Background(), "news")
	if err != nil {
		t.Fatalf("ошибка группировки: %v", err)
	}
	if len(grouped.Sections) != 2 {
		t.Fatalf("ожидалось 2 раздела, получено %d", len(grouped.Sections))
	}
	if len(grouped.Sections[0].Posts) != 1 {
		t.Errorf("в campus должен быть 1 пост")
	}
	if grouped.Sections[1].Posts == nil || len(grouped.Sections[1].Posts) != 0 {
		t.Errorf("пустой раздел должен присутствовать с пустым списком")
	}
}

func TestDeletedTab_PostsStillReadable(t *testing.T) {
	f := newPostFixture()

	id := f.createPost(t, "Orphan")

	// Вкладку «удалили» — пост остаётся доступным напрямую.
	delete(f.tabs.tabs, 1)

	post, err := f.svc.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("пост должен читаться после удаления вкладки: %v", err)
	}
	if post.TabSlug != "news" {
		t.Errorf("осиротевшая ссылка на вкладку должна сохраниться: %q", post.TabSlug)
	}
}

func TestHome_FirstFeatureWins(t *testing.T) {
	f := newPostFixture()

	for i, typ := range []string{models.PostTypeFeature, models.PostTypeFeature, models.PostTypeRecommended, models.PostTypeSpotlight, models.PostTypeNone} {
		_, err := f.svc.Create(context.Background(), 1, &models.CreatePostRequest{
			Title: fmt.Sprintf("Typed %d", i), TabID: 1, SectionSlug: "campus", PostType: typ,
		})
		if err != nil {
			t.Fatalf("ошибка создания поста: %v", err)
		}
	}

	home, err := f.svc.Home(context.Background())
	if err != nil {
		t.Fatalf("ошибка сборки главной: %v", err)
	}
	if home.Feature == nil || home.Feature.Slug != "typed-1" {
		t.Errorf("feature должен быть самым свежим из feature-постов: %+v", home.Feature)
	}
	if len(home.Recommended) != 1 || len(home.Spotlight) != 1 {
		t.Errorf("группировка по post_type неверна: rec=%d spot=%d", len(home.Recommended), len(home.Spotlight))
	}
}

func TestAdminSearch(t *testing.T) {
	f := newPostFixture()

	f.createPost(t, "Graduation Ceremony")
	f.createPost(t, "Library Hours")

	found, err := f.svc.AdminSearch(context.Background(), "graduation", "all")
	if err != nil {
		t.Fatalf("ошибка поиска: %v", err)
	}
	if len(found) != 1 || found[0].Slug != "graduation-ceremony" {
		t.Errorf("поиск по подстроке заголовка неверен: %+v", found)
	}

	// Подстрока раздела тоже матчится.
	found, _ = f.svc.AdminSearch(context.Background(), "camp", "news")
	if len(found) != 2 {
		t.Errorf("поиск по section_slug должен найти оба поста, получено %d", len(found))
	}

	found, _ = f.svc.AdminSearch(context.Background(), "", "other-tab")
	if len(found) != 0 {
		t.Errorf("фильтр по чужой вкладке должен дать пусто, получено %d", len(found))
	}
}

func TestNormalizePostType(t *testing.T) {
	if got, _ := normalizePostType(""); got != models.PostTypeNone {
		t.Errorf("пустой тип должен нормализоваться в none, получено %q", got)
	}
	if _, err := normalizePostType("banner"); !errors.Is(err, ErrValidation) {
		t.Errorf("неизвестный тип должен давать ErrValidation, получено: %v", err)
	}
}
