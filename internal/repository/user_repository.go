package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// UserRepo is the MySQL user registry.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UpsertUser registers the user or refreshes username and last_seen.  A
// single statement avoids the read-modify-write race of a check-then-insert.
func (r *UserRepo) UpsertUser(ctx context.Context, u model.User) error {
	if u.ID == 0 {
		return ErrEmptyKey
	}
	seen := u.LastSeenAt
	if seen.IsZero() {
		seen = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (user_id, username, last_seen) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE username = VALUES(username), last_seen = VALUES(last_seen)`,
		u.ID, u.DisplayName, seen)
	return err
}

// ListUserIDs returns every registered user id.
func (r *UserRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT user_id FROM users ORDER BY user_id")
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

// CountUsers returns the registry size.
func (r *UserRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
