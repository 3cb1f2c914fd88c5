package repository

import (
	"context"
	"database/sql"
)

// CategoryRepo stores category names in MySQL.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// AddCategory inserts name; an existing category is left as is.
func (r *CategoryRepo) AddCategory(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyKey
	}
	_, err := r.db.ExecContext(ctx, "INSERT IGNORE INTO categories (name) VALUES (?)", name)
	return err
}

// DeleteCategory removes name.  Movies keep their category label.
func (r *CategoryRepo) DeleteCategory(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE name = ?", name)
	return err
}

func (r *CategoryRepo) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM categories ORDER BY name")
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
