package jsonfile

import (
	"context"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

var _ repository.SnippetRepository = (*SnippetStore)(nil)

// SnippetStore implements repository.SnippetRepository over the shared Store.
type SnippetStore struct {
	s *Store
}

// copySnippet returns a defensive copy with its own Tags slice and the Likes
// field hydrated from the like relation. Caller must hold the store mutex.
func (ss *SnippetStore) copySnippet(sn model.Snippet) model.Snippet {
	sn.Tags = append([]string(nil), sn.Tags...)
	sn.Likes = len(ss.s.likes[sn.ID])
	return sn
}

// Create inserts a new snippet: fresh ID, zeroed counters, stamped times,
// then a full rewrite of the snippets namespace.
func (ss *SnippetStore) Create(_ context.Context, snippet *model.Snippet) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	snippet.ID = xid.New().String()
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	snippet.Views = 0
	snippet.ForkCount = 0
	snippet.Likes = 0
	if snippet.Tags == nil {
		snippet.Tags = []string{}
	}

	stored := *snippet
	stored.Tags = append([]string(nil), snippet.Tags...)
	ss.s.snippets[snippet.ID] = stored
	return ss.s.saveSnippets()
}

// GetAll returns every snippet, newest first.
func (ss *SnippetStore) GetAll(_ context.Context) ([]model.Snippet, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	snippets := make([]model.Snippet, 0, len(ss.s.snippets))
	for _, sn := range ss.s.snippets {
		snippets = append(snippets, ss.copySnippet(sn))
	}
	sortByTime(snippets, func(s model.Snippet) time.Time { return s.CreatedAt }, true)
	return snippets, nil
}

func (ss *SnippetStore) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	sn, ok := ss.s.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	out := ss.copySnippet(sn)
	return &out, nil
}

// ListByUser returns all snippets owned by userID, newest first.
func (ss *SnippetStore) ListByUser(_ context.Context, userID string) ([]model.Snippet, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	snippets := []model.Snippet{}
	for _, sn := range ss.s.snippets {
		if sn.UserID == userID {
			snippets = append(snippets, ss.copySnippet(sn))
		}
	}
	sortByTime(snippets, func(s model.Snippet) time.Time { return s.CreatedAt }, true)
	return snippets, nil
}

// ListPublic returns all public snippets, newest first.
func (ss *SnippetStore) ListPublic(_ context.Context) ([]model.Snippet, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	snippets := []model.Snippet{}
	for _, sn := range ss.s.snippets {
		if sn.IsPublic {
			snippets = append(snippets, ss.copySnippet(sn))
		}
	}
	sortByTime(snippets, func(s model.Snippet) time.Time { return s.CreatedAt }, true)
	return snippets, nil
}

// Update merges the non-nil fields into the stored snippet and refreshes
// UpdatedAt. An absent id returns the not-found signal and leaves the store
// (and its file) untouched.
func (ss *SnippetStore) Update(_ context.Context, id string, upd repository.SnippetUpdate) (*model.Snippet, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	sn, ok := ss.s.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}

	if upd.Title != nil {
		sn.Title = *upd.Title
	}
	if upd.Description != nil {
		sn.Description = *upd.Description
	}
	if upd.Code != nil {
		sn.Code = *upd.Code
	}
	if upd.Language != nil {
		sn.Language = *upd.Language
	}
	if upd.Tags != nil {
		sn.Tags = append([]string(nil), (*upd.Tags)...)
	}
	if upd.IsPublic != nil {
		sn.IsPublic = *upd.IsPublic
	}
	sn.UpdatedAt = time.Now()

	ss.s.snippets[id] = sn
	if err := ss.s.saveSnippets(); err != nil {
		return nil, err
	}
	out := ss.copySnippet(sn)
	return &out, nil
}

// Delete removes the snippet and its like rows.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (ss *SnippetStore) Delete(_ context.Context, id string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if _, ok := ss.s.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(ss.s.snippets, id)
	if err := ss.s.saveSnippets(); err != nil {
		return err
	}

	if _, ok := ss.s.likes[id]; ok {
		delete(ss.s.likes, id)
		if err := ss.s.saveLikes(); err != nil {
			return err
		}
	}

	return nil
}

// IncrementViews adds one view; each call counts one view, with no per-viewer
// deduplication. A missing id is a silent no-op.
func (ss *SnippetStore) IncrementViews(_ context.Context, id string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	sn, ok := ss.s.snippets[id]
	if !ok {
		return nil
	}
	sn.Views++
	ss.s.snippets[id] = sn
	return ss.s.saveSnippets()
}

// IncrementForkCount bumps the fork counter on the source snippet.
func (ss *SnippetStore) IncrementForkCount(_ context.Context, id string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	sn, ok := ss.s.snippets[id]
	if !ok {
		return apperror.NotFound("snippet", id)
	}
	sn.ForkCount++
	ss.s.snippets[id] = sn
	return ss.s.saveSnippets()
}
