package repository

import (
	"context"      // context carries deadlines to every query
	"database/sql" // sql provides the MySQL connection pool
	"errors"
	"strings"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// MovieRepo encapsulates all MySQL queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "code, media_ref, title, category, views"

// GetMovie fetches a movie by its exact code.  A missing row is reported
// as nil without an error.
func (r *MovieRepo) GetMovie(ctx context.Context, code string) (*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE code = ?"
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, code).Scan(&m.Code, &m.MediaRef, &m.Title, &m.Category, &m.Views)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SearchMovies returns movies whose title contains query, ignoring case.
func (r *MovieRepo) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE LOWER(title) LIKE ? ORDER BY title"
	return r.list(ctx, q, likePattern(strings.ToLower(query)))
}

// ListMoviesByCategory returns movies labelled with category.
func (r *MovieRepo) ListMoviesByCategory(ctx context.Context, category string) ([]model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE category = ? ORDER BY title"
	return r.list(ctx, q, category)
}

// ListMovies returns every movie ordered by title.
func (r *MovieRepo) ListMovies(ctx context.Context) ([]model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies ORDER BY title, code"
	return r.list(ctx, q)
}

// TopMovies returns the most viewed movies; equal view counts are ordered
// by code so results are reproducible.
func (r *MovieRepo) TopMovies(ctx context.Context, limit int) ([]model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies ORDER BY views DESC, code ASC LIMIT ?"
	return r.list(ctx, q, limit)
}

// IncrementViews adds one view in a single statement.  Zero affected rows
// (the movie was deleted meanwhile) is not an error.
func (r *MovieRepo) IncrementViews(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE movies SET views = views + 1 WHERE code = ?", code)
	return err
}

// UpsertMovie inserts a movie or replaces media, title and category of an
// existing one.  The views column is left untouched on update.
func (r *MovieRepo) UpsertMovie(ctx context.Context, m model.Movie) error {
	if m.Code == "" {
		return ErrEmptyKey
	}
	const q = `INSERT INTO movies (code, media_ref, title, category, views)
	           VALUES (?, ?, ?, ?, 0)
	           ON DUPLICATE KEY UPDATE
	               media_ref = VALUES(media_ref),
	               title     = VALUES(title),
	               category  = VALUES(category)`
	_, err := r.db.ExecContext(ctx, q, m.Code, m.MediaRef, m.Title, m.Category)
	return err
}

// DeleteMovie removes a movie.  Deleting an unknown code succeeds.
func (r *MovieRepo) DeleteMovie(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE code = ?", code)
	return err
}

// CountMovies returns the catalog size.
func (r *MovieRepo) CountMovies(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n)
	return n, err
}

func (r *MovieRepo) list(ctx context.Context, q string, args ...any) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
