package repository

import (
	"context"
	"database/sql"
)

// SQLStore combines the MySQL repositories into a Store.
type SQLStore struct {
	*MovieRepo
	*CategoryRepo
	*UserRepo
	db *sql.DB
}

// NewSQLStore wires the repositories around one connection pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		MovieRepo:    NewMovieRepo(db),
		CategoryRepo: NewCategoryRepo(db),
		UserRepo:     NewUserRepo(db),
		db:           db,
	}
}

func (s *SQLStore) Close(context.Context) error { return s.db.Close() }
