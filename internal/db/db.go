package db

import (
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
)

var DB *sql.DB

var ErrNotConfigured = errors.New("database not configured")

func InitDB(dsn string) error {
	if dsn == "" {
		return ErrNotConfigured
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return err
	}
	if err := EnsureSchema(conn); err != nil {
		conn.Close()
		return err
	}

	DB = conn
	return nil
}

func CloseDB() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

func EnsureSchema(conn *sql.DB) error {
	_, err := conn.Exec(`CREATE TABLE IF NOT EXISTS transactions (
		id           TEXT PRIMARY KEY,
		kind         TEXT NOT NULL,
		signer       TEXT NOT NULL,
		recipient    TEXT NOT NULL DEFAULT '',
		amount       TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}
