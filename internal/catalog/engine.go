// Package catalog implements lookup, search, browsing and view counting
// over the movie catalog, plus category curation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// ErrInvalidMovie is returned by Upsert when a required field is empty.
var ErrInvalidMovie = errors.New("movie code, media and title are required")

// ErrInvalidCategory is returned for an empty category name.
var ErrInvalidCategory = errors.New("category name is required")

// ErrTooLong is wrapped together with ErrInvalidMovie or
// ErrInvalidCategory when a code or name exceeds its byte limit.
var ErrTooLong = errors.New("value too long")

// Codes and category names travel in 64 byte button payloads behind a
// "movie_" or "category_" prefix.
const (
	MaxCodeBytes     = 58
	MaxCategoryBytes = 55
)

// Store is the slice of the catalog store the engine needs.
type Store interface {
	GetMovie(ctx context.Context, code string) (*model.Movie, error)
	SearchMovies(ctx context.Context, query string) ([]model.Movie, error)
	ListMoviesByCategory(ctx context.Context, category string) ([]model.Movie, error)
	ListMovies(ctx context.Context) ([]model.Movie, error)
	TopMovies(ctx context.Context, limit int) ([]model.Movie, error)
	IncrementViews(ctx context.Context, code string) error
	UpsertMovie(ctx context.Context, m model.Movie) error
	DeleteMovie(ctx context.Context, code string) error
	CountMovies(ctx context.Context) (int64, error)
	AddCategory(ctx context.Context, name string) error
	DeleteCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]string, error)
	CountUsers(ctx context.Context) (int64, error)
}

// DefaultTopLimit is used when TopByViews gets a non-positive limit.
const DefaultTopLimit = 10

// Engine is the catalog service.  It holds no state of its own.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	if store == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{store: store}
}

// GetByCode returns the movie with exactly this code, or nil.
func (e *Engine) GetByCode(ctx context.Context, code string) (*model.Movie, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	m, err := e.store.GetMovie(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get movie %q: %w", code, err)
	}
	return m, nil
}

// SearchByTitle matches substring case-insensitively against titles.  An
// empty substring matches every movie; rejecting empty queries is the
// caller's job.
func (e *Engine) SearchByTitle(ctx context.Context, substring string) ([]model.Movie, error) {
	out, err := e.store.SearchMovies(ctx, strings.TrimSpace(substring))
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return out, nil
}

func (e *Engine) ListByCategory(ctx context.Context, category string) ([]model.Movie, error) {
	out, err := e.store.ListMoviesByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list category %q: %w", category, err)
	}
	return out, nil
}

// ListAll returns the whole catalog ordered by title.
func (e *Engine) ListAll(ctx context.Context) ([]model.Movie, error) {
	out, err := e.store.ListMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return out, nil
}

// TopByViews returns up to limit movies, most viewed first; ties are
// ordered by code.
func (e *Engine) TopByViews(ctx context.Context, limit int) ([]model.Movie, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	out, err := e.store.TopMovies(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top movies: %w", err)
	}
	return out, nil
}

// RecordView adds exactly one view.  An unknown code is a no-op so a
// lookup racing an admin delete does not fail or resurrect the row.
func (e *Engine) RecordView(ctx context.Context, code string) error {
	if err := e.store.IncrementViews(ctx, code); err != nil {
		return fmt.Errorf("record view %q: %w", code, err)
	}
	return nil
}

// Upsert inserts a movie or replaces its media, title and category.  The
// view counter of an existing movie is preserved.
func (e *Engine) Upsert(ctx context.Context, code, mediaRef, title, category string) (model.Movie, error) {
	m := model.Movie{
		Code:     strings.TrimSpace(code),
		MediaRef: strings.TrimSpace(mediaRef),
		Title:    strings.TrimSpace(title),
		Category: strings.TrimSpace(category),
	}
	if m.Code == "" || m.MediaRef == "" || m.Title == "" {
		return model.Movie{}, ErrInvalidMovie
	}
	if len(m.Code) > MaxCodeBytes {
		return model.Movie{}, fmt.Errorf("%w: %w: code is %d bytes, max %d", ErrInvalidMovie, ErrTooLong, len(m.Code), MaxCodeBytes)
	}
	if len(m.Category) > MaxCategoryBytes {
		return model.Movie{}, fmt.Errorf("%w: %w: category is %d bytes, max %d", ErrInvalidMovie, ErrTooLong, len(m.Category), MaxCategoryBytes)
	}
	if err := e.store.UpsertMovie(ctx, m); err != nil {
		return model.Movie{}, fmt.Errorf("upsert movie %q: %w", m.Code, err)
	}
	return m, nil
}

// Remove deletes a movie; removing an unknown code succeeds.
func (e *Engine) Remove(ctx context.Context, code string) error {
	if err := e.store.DeleteMovie(ctx, strings.TrimSpace(code)); err != nil {
		return fmt.Errorf("delete movie %q: %w", code, err)
	}
	return nil
}

// AddCategory creates a category; adding an existing one succeeds.
func (e *Engine) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidCategory
	}
	if len(name) > MaxCategoryBytes {
		return fmt.Errorf("%w: %w: name is %d bytes, max %d", ErrInvalidCategory, ErrTooLong, len(name), MaxCategoryBytes)
	}
	if err := e.store.AddCategory(ctx, name); err != nil {
		return fmt.Errorf("add category %q: %w", name, err)
	}
	return nil
}

// RemoveCategory deletes a category.  Movies labelled with it keep the
// label and stay reachable by code and search.
func (e *Engine) RemoveCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidCategory
	}
	if err := e.store.DeleteCategory(ctx, name); err != nil {
		return fmt.Errorf("delete category %q: %w", name, err)
	}
	return nil
}

// Categories lists category names ordered by name.
func (e *Engine) Categories(ctx context.Context) ([]string, error) {
	out, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// HasCategory reports whether name is a known category.
func (e *Engine) HasCategory(ctx context.Context, name string) (bool, error) {
	cats, err := e.Categories(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cats {
		if c == name {
			return true, nil
		}
	}
	return false, nil
}

// Stats returns movie and user counts.
func (e *Engine) Stats(ctx context.Context) (model.Stats, error) {
	movies, err := e.store.CountMovies(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("count movies: %w", err)
	}
	users, err := e.store.CountUsers(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("count users: %w", err)
	}
	return model.Stats{Movies: movies, Users: users}, nil
}
