// Package tokenstore persists mobile API sessions so the gateway survives
// restarts without pairing again.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kuretru/quatt-gateway/internal/quatt"

	_ "modernc.org/sqlite"
)

// Store implements quatt.TokenStore on SQLite.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between refreshes
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS remote_tokens (
		cic TEXT PRIMARY KEY,
		id_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		installation_id TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadTokens returns nil without error when nothing is stored for cic.
func (s *Store) LoadTokens(ctx context.Context, cic string) (*quatt.Tokens, error) {
	var tokens quatt.Tokens
	err := s.db.QueryRowContext(ctx,
		`SELECT id_token, refresh_token, installation_id FROM remote_tokens WHERE cic = ?`, cic,
	).Scan(&tokens.IDToken, &tokens.RefreshToken, &tokens.InstallationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	return &tokens, nil
}

func (s *Store) SaveTokens(ctx context.Context, cic string, tokens *quatt.Tokens) error {
	if tokens == nil {
		return errors.New("save tokens: nil tokens")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO remote_tokens (cic, id_token, refresh_token, installation_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cic) DO UPDATE SET
			id_token = excluded.id_token,
			refresh_token = excluded.refresh_token,
			installation_id = excluded.installation_id,
			updated_at = excluded.updated_at`,
		cic, tokens.IDToken, tokens.RefreshToken, tokens.InstallationID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
