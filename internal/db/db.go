package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

type DB struct {
	*sqlx.DB
}

func Open(ctx context.Context, dsn string) (*DB, error) {
	xdb, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	xdb.SetMaxOpenConns(25)
	xdb.SetMaxIdleConns(25)
	xdb.SetConnMaxLifetime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := xdb.PingContext(pctx); err != nil {
		_ = xdb.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{DB: xdb}, nil
}

func (d *DB) Close() error { return d.DB.Close() }

// EnsureSchema applies the inline DDL. Every statement is idempotent.
func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'MEMBER',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS themes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			thumbnail VARCHAR(1024) NOT NULL DEFAULT ''
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		// start_at is wall-clock "HH:MM"
		`CREATE TABLE IF NOT EXISTS reservation_times (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			start_at CHAR(5) NOT NULL UNIQUE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

		`CREATE TABLE IF NOT EXISTS reservations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			member_id BIGINT NOT NULL,
			theme_id BIGINT NOT NULL,
			date DATE NOT NULL,
			time_id BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

			INDEX idx_reservations_slot (theme_id, date, time_id),
			INDEX idx_reservations_member (member_id),
			CONSTRAINT fk_reservations_member FOREIGN KEY (member_id) REFERENCES members (id),
			CONSTRAINT fk_reservations_theme FOREIGN KEY (theme_id) REFERENCES themes (id),
			CONSTRAINT fk_reservations_time FOREIGN KEY (time_id) REFERENCES reservation_times (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	}

	for _, s := range stmts {
		if _, err := d.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}
