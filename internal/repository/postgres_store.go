package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// PostgresStore implements Store on a pgx pool.  The schema matches the
// MySQL one; upserts use ON CONFLICT and search uses ILIKE.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetMovie(ctx context.Context, code string) (*model.Movie, error) {
	m := &model.Movie{}
	err := s.pool.QueryRow(ctx, `
		SELECT code, media_ref, title, category, views FROM movies WHERE code = $1
	`, code).Scan(&m.Code, &m.MediaRef, &m.Title, &m.Category, &m.Views)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	return s.movies(ctx, `
		SELECT code, media_ref, title, category, views FROM movies
		WHERE title ILIKE $1 ORDER BY title
	`, likePattern(query))
}

func (s *PostgresStore) ListMoviesByCategory(ctx context.Context, category string) ([]model.Movie, error) {
	return s.movies(ctx, `
		SELECT code, media_ref, title, category, views FROM movies
		WHERE category = $1 ORDER BY title
	`, category)
}

func (s *PostgresStore) ListMovies(ctx context.Context) ([]model.Movie, error) {
	return s.movies(ctx, `SELECT code, media_ref, title, category, views FROM movies ORDER BY title, code`)
}

func (s *PostgresStore) TopMovies(ctx context.Context, limit int) ([]model.Movie, error) {
	return s.movies(ctx, `
		SELECT code, media_ref, title, category, views FROM movies
		ORDER BY views DESC, code ASC LIMIT $1
	`, limit)
}

func (s *PostgresStore) IncrementViews(ctx context.Context, code string) error {
	_, err := s.pool.Exec(ctx, `UPDATE movies SET views = views + 1 WHERE code = $1`, code)
	return err
}

func (s *PostgresStore) UpsertMovie(ctx context.Context, m model.Movie) error {
	if m.Code == "" {
		return ErrEmptyKey
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO movies (code, media_ref, title, category, views)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (code) DO UPDATE SET
			media_ref = EXCLUDED.media_ref,
			title     = EXCLUDED.title,
			category  = EXCLUDED.category
	`, m.Code, m.MediaRef, m.Title, m.Category)
	return err
}

func (s *PostgresStore) DeleteMovie(ctx context.Context, code string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM movies WHERE code = $1`, code)
	return err
}

func (s *PostgresStore) CountMovies(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}

func (s *PostgresStore) AddCategory(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyKey
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
	return err
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE name = $1`, name)
	return err
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertUser(ctx context.Context, u model.User) error {
	if u.ID == 0 {
		return ErrEmptyKey
	}
	seen := u.LastSeenAt
	if seen.IsZero() {
		seen = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, last_seen) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username, last_seen = EXCLUDED.last_seen
	`, u.ID, u.DisplayName, seen)
	return err
}

func (s *PostgresStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) movies(ctx context.Context, q string, args ...any) ([]model.Movie, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.Code, &m.MediaRef, &m.Title, &m.Category, &m.Views); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
