package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

var _ repository.SnippetRepository = (*SnippetStore)(nil)

// SnippetStore implements repository.SnippetRepository over the shared connection.
type SnippetStore struct {
	conn *sql.DB
}

// encodeTags serializes the tag set into the JSON text column.
// A nil slice is stored as "[]" so reads never see SQL NULL.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}

// Create inserts a new snippet. The store owns ID generation and timestamps;
// the counters start at zero because the column defaults say so and the
// caller's struct is zero-valued for them.
func (db *SnippetStore) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	snippet.Views = 0
	snippet.ForkCount = 0
	snippet.Likes = 0

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets
		   (id, user_id, title, description, code, language, tags, is_public, forked_from, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.UserID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		tags,
		snippet.IsPublic,
		snippet.ForkedFrom,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// snippetColumns includes a correlated subquery for the like count, so every
// read derives Likes from the likes relation — there is no counter column
// that could drift out of sync.
const snippetColumns = `
	id, user_id, title, description, code, language, tags, is_public,
	forked_from, fork_count, views,
	(SELECT COUNT(*) FROM likes WHERE likes.snippet_id = snippets.id) AS likes,
	created_at, updated_at`

func scanSnippet(row interface{ Scan(...any) error }) (*model.Snippet, error) {
	var s model.Snippet
	var tags string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Title,
		&s.Description,
		&s.Code,
		&s.Language,
		&tags,
		&s.IsPublic,
		&s.ForkedFrom,
		&s.ForkCount,
		&s.Views,
		&s.Likes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for snippet %s: %w", s.ID, err)
	}
	return &s, nil
}

func (db *SnippetStore) querySnippets(ctx context.Context, query string, args ...any) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	// CRITICAL: always close rows — they hold a pool connection.
	defer rows.Close()

	var snippets []model.Snippet
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// GetAll returns every snippet, newest first.
func (db *SnippetStore) GetAll(ctx context.Context) ([]model.Snippet, error) {
	return db.querySnippets(ctx,
		`SELECT `+snippetColumns+` FROM snippets ORDER BY created_at DESC`)
}

// GetByID retrieves a single snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (db *SnippetStore) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	s, err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id))
	if err != nil {
		// sql.ErrNoRows is a sentinel — database/sql doesn't wrap it,
		// so == is the correct comparison here.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return s, nil
}

// ListByUser returns all snippets owned by userID, newest first.
func (db *SnippetStore) ListByUser(ctx context.Context, userID string) ([]model.Snippet, error) {
	return db.querySnippets(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
}

// ListPublic returns all public snippets, newest first.
func (db *SnippetStore) ListPublic(ctx context.Context) ([]model.Snippet, error) {
	return db.querySnippets(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE is_public = 1 ORDER BY created_at DESC`)
}

// Update merges the non-nil fields of upd into the stored snippet and
// refreshes updated_at. Returns apperror.ErrNotFound for an absent id —
// the store is left untouched in that case.
func (db *SnippetStore) Update(ctx context.Context, id string, upd repository.SnippetUpdate) (*model.Snippet, error) {
	snippet, err := db.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		snippet.Title = *upd.Title
	}
	if upd.Description != nil {
		snippet.Description = *upd.Description
	}
	if upd.Code != nil {
		snippet.Code = *upd.Code
	}
	if upd.Language != nil {
		snippet.Language = *upd.Language
	}
	if upd.Tags != nil {
		snippet.Tags = *upd.Tags
	}
	if upd.IsPublic != nil {
		snippet.IsPublic = *upd.IsPublic
	}
	snippet.UpdatedAt = time.Now()

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating snippet %s: %w", id, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, code = ?, language = ?, tags = ?, is_public = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		tags,
		snippet.IsPublic,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating snippet %s: %w", id, err)
	}

	return snippet, nil
}

// Delete removes a snippet and its like rows.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
// Collection membership rows are deliberately left behind (no cascade);
// readers treat dangling references as absent snippets.
func (db *SnippetStore) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	// RowsAffected tells us whether the WHERE clause matched anything.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM likes WHERE snippet_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting likes for snippet %s: %w", id, err)
	}

	return nil
}

// IncrementViews adds one view to the snippet. Each call counts exactly one
// view; there is no per-viewer deduplication. A missing id is a silent no-op.
func (db *SnippetStore) IncrementViews(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing views for snippet %s: %w", id, err)
	}
	return nil
}

// IncrementForkCount bumps the fork counter on the source snippet.
func (db *SnippetStore) IncrementForkCount(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET fork_count = fork_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing fork count for snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}
