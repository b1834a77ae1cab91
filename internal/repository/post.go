package repository

import (
	"context"

	"uninews/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostRepository struct {
	db *pgxpool.Pool
}

func NewPostRepository(db *pgxpool.Pool) *PostRepository { return &PostRepository{db: db} }

func (r *PostRepository) Create(ctx context.Context, p *models.Post) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO posts (title, content, slug, author_id, author_name,
		                    tab_id, tab_slug, section_slug, post_type, pub_date, image_url, comments)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
		p.Title, p.Content, p.Slug, p.AuthorID, p.AuthorName,
		p.TabID, p.TabSlug, p.SectionSlug, p.PostType, p.PubDate, p.ImageURL, p.Comments,
	).Scan(&id)
	return id, err
}

func (r *PostRepository) Update(ctx context.Context, p *models.Post) error {
	_, err := r.db.Exec(ctx,
		`UPDATE posts SET title=$1, content=$2, slug=$3, tab_id=$4, tab_slug=$5,
		                  section_slug=$6, post_type=$7, updated_at=now()
		 WHERE id=$8`,
		p.Title, p.Content, p.Slug, p.TabID, p.TabSlug, p.SectionSlug, p.PostType, p.ID,
	)
	return err
}

// UpdateImageURL — вторая фаза создания поста: ссылка на загруженную картинку.
func (r *PostRepository) UpdateImageURL(ctx context.Context, id int, url string) error {
	_, err := r.db.Exec(ctx, `UPDATE posts SET image_url=$1, updated_at=now() WHERE id=$2`, url, id)
	return err
}

func (r *PostRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	return err
}

const postColumns = `id, title, content, slug, author_id, author_name,
	tab_id, tab_slug, section_slug, post_type, pub_date,
	COALESCE(image_url, ''), comments, created_at, updated_at`

func scanPost(row interface{ Scan(dest ...any) error }) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Slug, &p.AuthorID, &p.AuthorName,
		&p.TabID, &p.TabSlug, &p.SectionSlug, &p.PostType, &p.PubDate,
		&p.ImageURL, &p.Comments, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return &p, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	row := r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	return scanPost(row)
}

// GetBySlug — точечный поиск по slug. Слоги глобально не уникальны: при
// коллизии выигрывает более поздний пост (поздняя запись затеняет раннюю).
func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug=$1 ORDER BY created_at DESC LIMIT 1`, slug)
	return scanPost(row)
}

func (r *PostRepository) listQuery(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) ListByTabSlug(ctx context.Context, tabSlug string) ([]*models.Post, error) {
	return r.listQuery(ctx,
		`SELECT `+postColumns+` FROM posts WHERE tab_slug=$1 ORDER BY pub_date DESC, created_at DESC`,
		tabSlug)
}

func (r *PostRepository) ListAll(ctx context.Context) ([]*models.Post, error) {
	return r.listQuery(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY pub_date DESC, created_at DESC`)
}

// ListLatest — N самых свежих постов по pub_date DESC, источник для
// пересборки кэша metadata/latestPosts.
func (r *PostRepository) ListLatest(ctx context.Context, limit int) ([]*models.Post, error) {
	return r.listQuery(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY pub_date DESC, created_at DESC LIMIT $1`,
		limit)
}
