package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/codevault/internal/repository"
)

var _ repository.LikeRepository = (*LikeStore)(nil)

// LikeStore implements repository.LikeRepository over the shared connection.
type LikeStore struct {
	conn *sql.DB
}

// Add records a like for (userID, snippetID).
//
// INSERT OR IGNORE leans on the UNIQUE(user_id, snippet_id) constraint:
// inserting a like that already exists silently does nothing, so Add is
// idempotent and the uniqueness invariant holds without a prior SELECT.
func (db *LikeStore) Add(ctx context.Context, userID, snippetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO likes (user_id, snippet_id, created_at) VALUES (?, ?, ?)`,
		userID, snippetID, time.Now())
	if err != nil {
		return fmt.Errorf("sqlite: adding like (%s, %s): %w", userID, snippetID, err)
	}
	return nil
}

// Remove deletes the like for (userID, snippetID) and reports whether one
// actually existed.
func (db *LikeStore) Remove(ctx context.Context, userID, snippetID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND snippet_id = ?`,
		userID, snippetID)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing like (%s, %s): %w", userID, snippetID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Exists reports whether the user currently likes the snippet.
func (db *LikeStore) Exists(ctx context.Context, userID, snippetID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE user_id = ? AND snippet_id = ?`,
		userID, snippetID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking like (%s, %s): %w", userID, snippetID, err)
	}
	return count > 0, nil
}

// CountBySnippet returns the number of likes on a snippet — the cardinality
// of the relation, which is the only like count this system has.
func (db *LikeStore) CountBySnippet(ctx context.Context, snippetID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE snippet_id = ?`, snippetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes for snippet %s: %w", snippetID, err)
	}
	return count, nil
}
