package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
	"github.com/iliyamo/cinema-catalog-bot/internal/repository"
)

func newEngine(t *testing.T) (*Engine, *repository.MemoryStore) {
	t.Helper()
	s := repository.NewMemoryStore()
	return NewEngine(s), s
}

func TestGetByCode_AbsentIsNil(t *testing.T) {
	e, _ := newEngine(t)
	m, err := e.GetByCode(context.Background(), "404")
	if err != nil || m != nil {
		t.Fatalf("want nil, nil; got %+v, %v", m, err)
	}
}

func TestRecordView_UnknownCodeCreatesNothing(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	if err := e.RecordView(ctx, "ghost"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountMovies(ctx); n != 0 {
		t.Fatalf("row created: %d", n)
	}
}

func TestUpsert_ReplacesFieldsKeepsViews(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	if _, err := e.Upsert(ctx, "7", "m1", "Old", "A"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		_ = e.RecordView(ctx, "7")
	}
	if _, err := e.Upsert(ctx, "7", "m2", "New", "B"); err != nil {
		t.Fatal(err)
	}
	all, _ := e.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("want one row, got %d", len(all))
	}
	got := all[0]
	if got.MediaRef != "m2" || got.Title != "New" || got.Category != "B" || got.Views != 3 {
		t.Fatalf("unexpected row %+v", got)
	}
}

func TestUpsert_RejectsMissingFields(t *testing.T) {
	e, _ := newEngine(t)
	if _, err := e.Upsert(context.Background(), " ", "m", "t", ""); !errors.Is(err, ErrInvalidMovie) {
		t.Fatalf("want ErrInvalidMovie, got %v", err)
	}
	if _, err := e.Upsert(context.Background(), "1", "m", "  ", ""); !errors.Is(err, ErrInvalidMovie) {
		t.Fatalf("want ErrInvalidMovie, got %v", err)
	}
}

func TestRecordView_CountsExactly(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	_, _ = e.Upsert(ctx, "x", "m", "X", "")

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = e.RecordView(ctx, "x") }()
		go func() { defer wg.Done(); _, _ = e.GetByCode(ctx, "x") }()
	}
	wg.Wait()
	m, _ := e.GetByCode(ctx, "x")
	if m.Views != 25 {
		t.Fatalf("want 25, got %d", m.Views)
	}
}

func TestSearchByTitle(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	_, _ = e.Upsert(ctx, "1", "m", "Inception", "Sci-Fi")
	_, _ = e.Upsert(ctx, "2", "m", "Interstellar", "Sci-Fi")
	_, _ = e.Upsert(ctx, "3", "m", "Heat", "Crime")

	got, _ := e.SearchByTitle(ctx, "INce")
	if len(got) != 1 || got[0].Code != "1" {
		t.Fatalf("case-insensitive search failed: %+v", got)
	}
	// The engine itself does not guard the empty query.
	all, _ := e.SearchByTitle(ctx, "")
	if len(all) != 3 {
		t.Fatalf("empty substring should match all, got %d", len(all))
	}
}

func TestListAllAndCategory(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	_, _ = e.Upsert(ctx, "2", "m", "Zodiac", "Crime")
	_, _ = e.Upsert(ctx, "1", "m", "Alien", "Sci-Fi")
	_, _ = e.Upsert(ctx, "3", "m", "Heat", "Crime")

	all, _ := e.ListAll(ctx)
	if all[0].Title != "Alien" || all[2].Title != "Zodiac" {
		t.Fatalf("not ordered by title: %+v", all)
	}
	crime, _ := e.ListByCategory(ctx, "Crime")
	if len(crime) != 2 {
		t.Fatalf("want 2 crime movies, got %d", len(crime))
	}
}

func TestTopByViews(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	for _, c := range []string{"a", "b", "c", "d"} {
		_, _ = e.Upsert(ctx, c, "m", c, "")
	}
	_ = e.RecordView(ctx, "d")
	_ = e.RecordView(ctx, "d")
	_ = e.RecordView(ctx, "b")
	_ = e.RecordView(ctx, "c")

	top, _ := e.TopByViews(ctx, 3)
	want := []string{"d", "b", "c"}
	for i, m := range top {
		if m.Code != want[i] {
			t.Fatalf("position %d: want %s got %s", i, want[i], m.Code)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	_, _ = e.Upsert(ctx, "1", "m", "T", "")
	if err := e.Remove(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if err := e.Remove(ctx, "1"); err != nil {
		t.Fatalf("second remove should succeed: %v", err)
	}
}

func TestRemoveCategoryKeepsMovies(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	_ = e.AddCategory(ctx, "Drama")
	_, _ = e.Upsert(ctx, "1", "m", "T", "Drama")
	if err := e.RemoveCategory(ctx, "Drama"); err != nil {
		t.Fatal(err)
	}
	ok, _ := e.HasCategory(ctx, "Drama")
	if ok {
		t.Fatalf("category still listed")
	}
	m, _ := e.GetByCode(ctx, "1")
	if m == nil || m.Category != "Drama" {
		t.Fatalf("movie should keep orphaned label: %+v", m)
	}
	if err := e.AddCategory(ctx, " "); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("want ErrInvalidCategory, got %v", err)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	_, _ = e.Upsert(ctx, "1", "m", "T", "")
	_ = s.UpsertUser(ctx, model.User{ID: 1})
	_ = s.UpsertUser(ctx, model.User{ID: 2})
	st, err := e.Stats(ctx)
	if err != nil || st.Movies != 1 || st.Users != 2 {
		t.Fatalf("stats %+v err %v", st, err)
	}
}

func TestUpsert_RejectsCodesThatDoNotFitAButton(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	long := strings.Repeat("x", MaxCodeBytes+1)
	_, err := e.Upsert(ctx, long, "m", "T", "")
	if !errors.Is(err, ErrInvalidMovie) || !errors.Is(err, ErrTooLong) {
		t.Fatalf("want ErrInvalidMovie and ErrTooLong, got %v", err)
	}
	if n, _ := s.CountMovies(ctx); n != 0 {
		t.Fatalf("over-long code was stored")
	}
	if _, err := e.Upsert(ctx, strings.Repeat("x", MaxCodeBytes), "m", "T", ""); err != nil {
		t.Fatalf("code at the limit should pass: %v", err)
	}
	// Cyrillic letters take two bytes each.
	if _, err := e.Upsert(ctx, "1", "m", "T", strings.Repeat("ж", 28)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("want ErrTooLong for category, got %v", err)
	}
}

func TestAddCategory_LimitIsInBytes(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	err := e.AddCategory(ctx, strings.Repeat("ж", 30))
	if !errors.Is(err, ErrInvalidCategory) || !errors.Is(err, ErrTooLong) {
		t.Fatalf("want ErrInvalidCategory and ErrTooLong, got %v", err)
	}
	name := strings.Repeat("ж", 27)
	if err := e.AddCategory(ctx, name); err != nil {
		t.Fatalf("54 byte name should pass: %v", err)
	}
	if ok, _ := e.HasCategory(ctx, name); !ok {
		t.Fatalf("category not stored")
	}
}
