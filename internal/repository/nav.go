package repository

import (
	"context"

	"uninews/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NavRepository struct {
	db *pgxpool.Pool
}

func NewNavRepository(db *pgxpool.Pool) *NavRepository { return &NavRepository{db: db} }

// Разделы хранятся jsonb-списком прямо в строке вкладки, поэтому любое
// изменение раздела — это UPDATE всей вкладки.

func (r *NavRepository) CreateTab(ctx context.Context, t *models.Tab) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO nav_tabs (title, slug, position, admin_only, sections)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		t.Title, t.Slug, t.Order, t.AdminOnly, t.Sections,
	).Scan(&id)
	return id, err
}

// UpdateTab переписывает title, sections и admin_only; slug и position не трогает.
func (r *NavRepository) UpdateTab(ctx context.Context, t *models.Tab) error {
	_, err := r.db.Exec(ctx,
		`UPDATE nav_tabs SET title=$1, sections=$2, admin_only=$3, updated_at=now() WHERE id=$4`,
		t.Title, t.Sections, t.AdminOnly, t.ID,
	)
	return err
}

func (r *NavRepository) DeleteTab(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM nav_tabs WHERE id=$1`, id)
	return err
}

func (r *NavRepository) GetTabByID(ctx context.Context, id int) (*models.Tab, error) {
	var t models.Tab
	err := r.db.QueryRow(ctx,
		`SELECT id, title, slug, position, admin_only, sections, created_at, updated_at
		 FROM nav_tabs WHERE id=$1`, id,
	).Scan(&t.ID, &t.Title, &t.Slug, &t.Order, &t.AdminOnly, &t.Sections, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *NavRepository) GetTabBySlug(ctx context.Context, slug string) (*models.Tab, error) {
	var t models.Tab
	err := r.db.QueryRow(ctx,
		`SELECT id, title, slug, position, admin_only, sections, created_at, updated_at
		 FROM nav_tabs WHERE slug=$1`, slug,
	).Scan(&t.ID, &t.Title, &t.Slug, &t.Order, &t.AdminOnly, &t.Sections, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTabs — все вкладки по position ASC (хвостовая сортировка по id —
// разрешение дублей position после удалений).
func (r *NavRepository) ListTabs(ctx context.Context) ([]*models.Tab, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, slug, position, admin_only, sections, created_at, updated_at
		 FROM nav_tabs ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tabs []*models.Tab
	for rows.Next() {
		var t models.Tab
		if err := rows.Scan(&t.ID, &t.Title, &t.Slug, &t.Order, &t.AdminOnly, &t.Sections, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if t.Sections == nil {
			t.Sections = []models.Section{}
		}
		tabs = append(tabs, &t)
	}
	return tabs, rows.Err()
}

func (r *NavRepository) CountTabs(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM nav_tabs`).Scan(&n)
	return n, err
}

func (r *NavRepository) TabSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM nav_tabs WHERE slug=$1)`, slug).Scan(&exists)
	return exists, err
}
