package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// MemoryStore is a mutex guarded in-process Store.  It backs tests and
// STORE_DRIVER=memory for local runs; nothing survives a restart.
type MemoryStore struct {
	mu         sync.RWMutex
	movies     map[string]model.Movie
	categories map[string]struct{}
	users      map[int64]model.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		movies:     make(map[string]model.Movie),
		categories: make(map[string]struct{}),
		users:      make(map[int64]model.User),
	}
}

func (s *MemoryStore) GetMovie(_ context.Context, code string) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[code]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) SearchMovies(_ context.Context, query string) ([]model.Movie, error) {
	q := strings.ToLower(query)
	return s.filter(func(m model.Movie) bool {
		return strings.Contains(strings.ToLower(m.Title), q)
	}, byTitle), nil
}

func (s *MemoryStore) ListMoviesByCategory(_ context.Context, category string) ([]model.Movie, error) {
	return s.filter(func(m model.Movie) bool { return m.Category == category }, byTitle), nil
}

func (s *MemoryStore) ListMovies(context.Context) ([]model.Movie, error) {
	return s.filter(func(model.Movie) bool { return true }, byTitle), nil
}

func (s *MemoryStore) TopMovies(_ context.Context, limit int) ([]model.Movie, error) {
	out := s.filter(func(model.Movie) bool { return true }, func(a, b model.Movie) bool {
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		return a.Code < b.Code
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) IncrementViews(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.movies[code]; ok {
		m.Views++
		s.movies[code] = m
	}
	return nil
}

func (s *MemoryStore) UpsertMovie(_ context.Context, m model.Movie) error {
	if m.Code == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Views = s.movies[m.Code].Views
	s.movies[m.Code] = m
	return nil
}

func (s *MemoryStore) DeleteMovie(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.movies, code)
	return nil
}

func (s *MemoryStore) CountMovies(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.movies)), nil
}

func (s *MemoryStore) AddCategory(_ context.Context, name string) error {
	if name == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[name] = struct{}{}
	return nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, name)
	return nil
}

func (s *MemoryStore) ListCategories(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.categories))
	for name := range s.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, u model.User) error {
	if u.ID == 0 {
		return ErrEmptyKey
	}
	if u.LastSeenAt.IsZero() {
		u.LastSeenAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) ListUserIDs(context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) CountUsers(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func byTitle(a, b model.Movie) bool {
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Code < b.Code
}

func (s *MemoryStore) filter(keep func(model.Movie) bool, less func(a, b model.Movie) bool) []model.Movie {
	s.mu.RLock()
	out := make([]model.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		if keep(m) {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
