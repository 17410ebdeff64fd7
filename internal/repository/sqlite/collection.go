package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

var _ repository.CollectionRepository = (*CollectionStore)(nil)

// CollectionStore implements repository.CollectionRepository over the shared
// connection.
type CollectionStore struct {
	conn *sql.DB
}

// Create inserts a new collection, generating its ID and creation time.
func (cs *CollectionStore) Create(ctx context.Context, collection *model.Collection) error {
	collection.ID = xid.New().String()
	collection.CreatedAt = time.Now()

	_, err := cs.conn.ExecContext(ctx,
		`INSERT INTO collections (id, user_id, name, description, is_public, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		collection.ID,
		collection.UserID,
		collection.Name,
		collection.Description,
		collection.IsPublic,
		collection.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating collection: %w", err)
	}

	return nil
}

func (cs *CollectionStore) snippetIDs(ctx context.Context, collectionID string) ([]string, error) {
	rows, err := cs.conn.QueryContext(ctx,
		`SELECT snippet_id FROM collection_snippets WHERE collection_id = ?`,
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing collection members: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning membership row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating memberships: %w", err)
	}

	return ids, nil
}

// GetByID retrieves a collection with its member snippet IDs hydrated.
func (cs *CollectionStore) GetByID(ctx context.Context, id string) (*model.Collection, error) {
	var c model.Collection
	err := cs.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, is_public, created_at
		 FROM collections WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPublic, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("collection", id)
		}
		return nil, fmt.Errorf("sqlite: getting collection %s: %w", id, err)
	}

	c.SnippetIDs, err = cs.snippetIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// ListByUser returns all collections owned by userID, newest first.
func (cs *CollectionStore) ListByUser(ctx context.Context, userID string) ([]model.Collection, error) {
	rows, err := cs.conn.QueryContext(ctx,
		`SELECT id, user_id, name, description, is_public, created_at
		 FROM collections WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing collections: %w", err)
	}
	defer rows.Close()

	var collections []model.Collection
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPublic, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning collection row: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating collections: %w", err)
	}

	// Hydrate memberships after the rows iterator is closed — nested queries
	// on one sqlite connection while rows are open can deadlock.
	for i := range collections {
		ids, err := cs.snippetIDs(ctx, collections[i].ID)
		if err != nil {
			return nil, err
		}
		collections[i].SnippetIDs = ids
	}

	return collections, nil
}

// Delete removes a collection and its membership rows, reporting whether the
// collection existed. Member snippets are untouched.
func (cs *CollectionStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := cs.conn.ExecContext(ctx,
		`DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting collection %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if _, err := cs.conn.ExecContext(ctx,
		`DELETE FROM collection_snippets WHERE collection_id = ?`, id); err != nil {
		return false, fmt.Errorf("sqlite: deleting memberships for collection %s: %w", id, err)
	}

	return true, nil
}

// AddSnippet records membership of snippetID in collectionID.
// Adding an existing membership is a no-op (UNIQUE + OR IGNORE).
func (cs *CollectionStore) AddSnippet(ctx context.Context, collectionID, snippetID string) error {
	_, err := cs.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO collection_snippets (collection_id, snippet_id) VALUES (?, ?)`,
		collectionID, snippetID)
	if err != nil {
		return fmt.Errorf("sqlite: adding snippet %s to collection %s: %w", snippetID, collectionID, err)
	}
	return nil
}

// RemoveSnippet deletes the membership row, reporting whether it existed.
func (cs *CollectionStore) RemoveSnippet(ctx context.Context, collectionID, snippetID string) (bool, error) {
	result, err := cs.conn.ExecContext(ctx,
		`DELETE FROM collection_snippets WHERE collection_id = ? AND snippet_id = ?`,
		collectionID, snippetID)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing snippet %s from collection %s: %w", snippetID, collectionID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
