package jsonfile

import (
	"context"

	"github.com/sakif/codevault/internal/repository"
)

var _ repository.LikeRepository = (*LikeStore)(nil)

// LikeStore implements repository.LikeRepository over the shared Store.
//
// The relation lives as snippet ID → set of user IDs, so the uniqueness
// invariant (at most one like per user per snippet) holds by construction:
// a set cannot contain the same user twice.
type LikeStore struct {
	s *Store
}

// Add records a like. Re-adding an existing like is a no-op.
func (ls *LikeStore) Add(_ context.Context, userID, snippetID string) error {
	ls.s.mu.Lock()
	defer ls.s.mu.Unlock()

	set, ok := ls.s.likes[snippetID]
	if !ok {
		set = make(map[string]bool)
		ls.s.likes[snippetID] = set
	}
	if set[userID] {
		return nil
	}
	set[userID] = true
	return ls.s.saveLikes()
}

// Remove deletes the like and reports whether one actually existed.
func (ls *LikeStore) Remove(_ context.Context, userID, snippetID string) (bool, error) {
	ls.s.mu.Lock()
	defer ls.s.mu.Unlock()

	set, ok := ls.s.likes[snippetID]
	if !ok || !set[userID] {
		return false, nil
	}
	delete(set, userID)
	if err := ls.s.saveLikes(); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether the user currently likes the snippet.
func (ls *LikeStore) Exists(_ context.Context, userID, snippetID string) (bool, error) {
	ls.s.mu.Lock()
	defer ls.s.mu.Unlock()

	return ls.s.likes[snippetID][userID], nil
}

// CountBySnippet returns the cardinality of the snippet's like set.
func (ls *LikeStore) CountBySnippet(_ context.Context, snippetID string) (int, error) {
	ls.s.mu.Lock()
	defer ls.s.mu.Unlock()

	return len(ls.s.likes[snippetID]), nil
}
