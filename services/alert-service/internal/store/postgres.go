package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS user_states (
		user_id    TEXT PRIMARY KEY,
		version    BIGINT NOT NULL,
		state      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// DB stores user state in the user_states table.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

// EnsureSchema creates the user_states and notifications tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create user_states table: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, notificationsSchema); err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	return nil
}

// Get loads the user's state.
func (db *DB) Get(ctx context.Context, userID string) (*models.UserState, error) {
	query := `
		SELECT state, version
		FROM user_states
		WHERE user_id = $1
	`
	var (
		data    []byte
		version int64
	)
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return decode(data, version)
}

// Put inserts a new user's state or updates an existing one conditionally on its version.
func (db *DB) Put(ctx context.Context, state *models.UserState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	next := state.Version + 1

	if state.Version == 0 {
		query := `
			INSERT INTO user_states (user_id, version, state, updated_at)
			VALUES ($1, $2, $3, NOW())
		`
		_, err := db.conn.ExecContext(ctx, query, state.UserID, next, data)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				if pqErr.Code == "23505" { // unique_violation
					return db.conflict(ctx, state)
				}
			}
			return fmt.Errorf("failed to insert user state: %w", err)
		}
		state.Version = next
		return nil
	}

	query := `
		UPDATE user_states
		SET state = $3, version = $4, updated_at = NOW()
		WHERE user_id = $1 AND version = $2
	`
	result, err := db.conn.ExecContext(ctx, query, state.UserID, state.Version, data, next)
	if err != nil {
		return fmt.Errorf("failed to update user state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return db.conflict(ctx, state)
	}
	state.Version = next
	return nil
}

// conflict builds a ConflictError carrying the stored version, when it can be read.
func (db *DB) conflict(ctx context.Context, state *models.UserState) error {
	var actual int64
	err := db.conn.QueryRowContext(ctx, `SELECT version FROM user_states WHERE user_id = $1`, state.UserID).Scan(&actual)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Warn("Failed to read current version after conflict", "user_id", state.UserID, "error", err)
		actual = -1
	}
	return &apperr.ConflictError{UserID: state.UserID, ExpectedVersion: state.Version, ActualVersion: actual}
}
