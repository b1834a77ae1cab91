package repository

import (
	"context"
	"errors"

	"uninews/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const latestPostsKey = "latestPosts"

// MetadataRepository хранит одиночные денормализованные документы
// (таблица metadata: key -> jsonb).
type MetadataRepository struct {
	db *pgxpool.Pool
}

func NewMetadataRepository(db *pgxpool.Pool) *MetadataRepository {
	return &MetadataRepository{db: db}
}

func (r *MetadataRepository) GetLatestPosts(ctx context.Context) ([]models.LatestPostEntry, error) {
	var entries []models.LatestPostEntry
	err := r.db.QueryRow(ctx,
		`SELECT value->'posts' FROM metadata WHERE key=$1`, latestPostsKey,
	).Scan(&entries)
	if errors.Is(err, pgx.ErrNoRows) {
		return []models.LatestPostEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LatestPostEntry{}
	}
	return entries, nil
}

// SetLatestPosts перезаписывает документ целиком — инкрементальных правок
// у кэша нет, последний писатель побеждает.
func (r *MetadataRepository) SetLatestPosts(ctx context.Context, entries []models.LatestPostEntry) error {
	doc := map[string]any{"posts": entries}
	_, err := r.db.Exec(ctx,
		`INSERT INTO metadata (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		latestPostsKey, doc,
	)
	return err
}
