package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// OpenMySQL connects to MySQL, verifies the connection and creates the
// catalog tables when they are missing.
func OpenMySQL(ctx context.Context, user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps last_seen consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range mysqlSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		code      VARCHAR(64)  NOT NULL PRIMARY KEY,
		media_ref VARCHAR(255) NOT NULL,
		title     VARCHAR(255) NOT NULL,
		category  VARCHAR(128) NOT NULL DEFAULT '',
		views     BIGINT       NOT NULL DEFAULT 0,
		INDEX idx_movies_category (category),
		INDEX idx_movies_views (views)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS categories (
		name VARCHAR(128) NOT NULL PRIMARY KEY
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id   BIGINT       NOT NULL PRIMARY KEY,
		username  VARCHAR(255) NOT NULL DEFAULT '',
		last_seen DATETIME     NOT NULL
	) CHARACTER SET utf8mb4`,
}
