// Package profiles reads user keyword configuration from the PostgreSQL
// profile store. The store is owned by the external profile service; this
// package only reads and never mutates it.
package profiles

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"notifier/internal/shared"
)

// Profile is one user's raw keyword configuration as authored. Both
// fields are opaque rule-language strings; compilation happens in the
// keywords package.
type Profile struct {
	UserID         string
	Keywords       string
	IgnoreKeywords string
}

// Store wraps a read-only database connection to the profile store.
type Store struct {
	conn *sql.DB
}

// NewStore opens a connection to the profile database using the provided
// DSN and verifies it with a ping.
func NewStore(dsn string) (*Store, error) {
	slog.Info("Connecting to profile database", "dsn", shared.MaskDSN(dsn))

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to profile database")

	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		slog.Info("Closing profile database connection")
		return s.conn.Close()
	}
	return nil
}

// ListSubscribers returns the IDs of all users currently subscribed to
// channel notifications.
func (s *Store) ListSubscribers(ctx context.Context) ([]string, error) {
	query := `
		SELECT user_id
		FROM profiles
		WHERE subscribed = TRUE
		ORDER BY user_id
	`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriber rows: %w", err)
	}
	return userIDs, nil
}

// GetProfile retrieves one user's raw keyword configuration. NULL columns
// read as empty strings, which compile to empty rule sets.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT user_id, COALESCE(keywords, ''), COALESCE(ignore_keywords, '')
		FROM profiles
		WHERE user_id = $1
	`
	var profile Profile
	err := s.conn.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Keywords,
		&profile.IgnoreKeywords,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}
