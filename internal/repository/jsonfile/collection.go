package jsonfile

import (
	"context"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

var _ repository.CollectionRepository = (*CollectionStore)(nil)

// CollectionStore implements repository.CollectionRepository over the shared
// Store. Membership is the SnippetIDs set on each record — still join-table
// semantics (one snippet may appear in many collections), just serialized
// inline with its collection.
type CollectionStore struct {
	s *Store
}

func copyCollection(c model.Collection) model.Collection {
	c.SnippetIDs = append([]string(nil), c.SnippetIDs...)
	return c
}

// Create inserts a new collection, generating its ID and creation time.
func (cs *CollectionStore) Create(_ context.Context, collection *model.Collection) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	collection.ID = xid.New().String()
	collection.CreatedAt = time.Now()
	if collection.SnippetIDs == nil {
		collection.SnippetIDs = []string{}
	}

	cs.s.collections[collection.ID] = copyCollection(*collection)
	return cs.s.saveCollections()
}

func (cs *CollectionStore) GetByID(_ context.Context, id string) (*model.Collection, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	c, ok := cs.s.collections[id]
	if !ok {
		return nil, apperror.NotFound("collection", id)
	}
	out := copyCollection(c)
	return &out, nil
}

// ListByUser returns all collections owned by userID, newest first.
func (cs *CollectionStore) ListByUser(_ context.Context, userID string) ([]model.Collection, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	collections := []model.Collection{}
	for _, c := range cs.s.collections {
		if c.UserID == userID {
			collections = append(collections, copyCollection(c))
		}
	}
	sortByTime(collections, func(c model.Collection) time.Time { return c.CreatedAt }, true)
	return collections, nil
}

// Delete removes the collection, reporting whether it existed.
// Member snippets are untouched (no cascade).
func (cs *CollectionStore) Delete(_ context.Context, id string) (bool, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	if _, ok := cs.s.collections[id]; !ok {
		return false, nil
	}
	delete(cs.s.collections, id)
	if err := cs.s.saveCollections(); err != nil {
		return false, err
	}
	return true, nil
}

// AddSnippet records membership; adding an existing membership is a no-op.
func (cs *CollectionStore) AddSnippet(_ context.Context, collectionID, snippetID string) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	c, ok := cs.s.collections[collectionID]
	if !ok {
		return apperror.NotFound("collection", collectionID)
	}
	for _, id := range c.SnippetIDs {
		if id == snippetID {
			return nil
		}
	}
	c.SnippetIDs = append(append([]string(nil), c.SnippetIDs...), snippetID)
	cs.s.collections[collectionID] = c
	return cs.s.saveCollections()
}

// RemoveSnippet deletes the membership, reporting whether it existed.
func (cs *CollectionStore) RemoveSnippet(_ context.Context, collectionID, snippetID string) (bool, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	c, ok := cs.s.collections[collectionID]
	if !ok {
		return false, nil
	}
	kept := make([]string, 0, len(c.SnippetIDs))
	removed := false
	for _, id := range c.SnippetIDs {
		if id == snippetID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		return false, nil
	}
	c.SnippetIDs = kept
	cs.s.collections[collectionID] = c
	if err := cs.s.saveCollections(); err != nil {
		return false, err
	}
	return true, nil
}
