package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/config"
	"github.com/iliyamo/cinema-catalog-bot/internal/database"
	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// Store is the full catalog store: movies, categories and the user
// registry.  Consumers depend on the narrower interfaces they need.
type Store interface {
	// GetMovie returns nil, nil when the code is unknown.
	GetMovie(ctx context.Context, code string) (*model.Movie, error)
	// SearchMovies matches query as a case-insensitive substring of the title.
	SearchMovies(ctx context.Context, query string) ([]model.Movie, error)
	ListMoviesByCategory(ctx context.Context, category string) ([]model.Movie, error)
	// ListMovies returns every movie ordered by title.
	ListMovies(ctx context.Context) ([]model.Movie, error)
	// TopMovies orders by views descending, then code ascending.
	TopMovies(ctx context.Context, limit int) ([]model.Movie, error)
	// IncrementViews adds one view; unknown codes are ignored.
	IncrementViews(ctx context.Context, code string) error
	// UpsertMovie inserts or replaces every field except Views.
	UpsertMovie(ctx context.Context, m model.Movie) error
	DeleteMovie(ctx context.Context, code string) error
	CountMovies(ctx context.Context) (int64, error)

	AddCategory(ctx context.Context, name string) error
	DeleteCategory(ctx context.Context, name string) error
	// ListCategories returns category names ordered by name.
	ListCategories(ctx context.Context) ([]string, error)

	// UpsertUser creates the user or refreshes name and last seen time.
	UpsertUser(ctx context.Context, u model.User) error
	ListUserIDs(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int64, error)

	Close(ctx context.Context) error
}

// Open builds the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.OpenMySQL(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		return NewSQLStore(db), nil
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return NewPostgresStore(pool), nil
	case config.DriverMongo:
		db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		return NewMongoStore(db), nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
}

// likePattern escapes LIKE metacharacters so user input only ever matches
// literally, then wraps it in wildcards.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
