// Package repository defines the storage contracts the services depend on.
//
// Services receive these interfaces, never a concrete store. Two backends
// implement every interface below: the sqlite store (relational, the
// server-style deployment) and the jsonfile store (whole-file JSON rewrite,
// the browser-storage-style deployment). The services must work identically
// against either — nothing above this package may assume which one is active.
package repository

import (
	"context"

	"github.com/sakif/codevault/internal/model"
)

// SnippetUpdate is an explicit partial update for a snippet.
//
// WHY POINTER FIELDS?
// A nil field means "leave it alone"; a non-nil field means "set it to this
// value". That distinction is impossible with plain values (you couldn't tell
// "set description to empty" apart from "don't touch description").
//
// Note what is NOT here: ID, UserID, ForkedFrom, CreatedAt and the counters.
// The immutable fields cannot be overwritten because the type gives callers
// no way to express it.
type SnippetUpdate struct {
	Title       *string
	Description *string
	Code        *string
	Language    *string
	Tags        *[]string
	IsPublic    *bool
}

// UserUpdate is an explicit partial update for a user profile.
// Email, password hash and timestamps move only through the session service.
type UserUpdate struct {
	Username *string
	Bio      *string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetAll(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail returns apperror.ErrNotFound when no user has that email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// Update merges the non-nil fields into the stored record and refreshes
	// UpdatedAt. Returns apperror.ErrNotFound if the id is absent.
	Update(ctx context.Context, id string, upd UserUpdate) (*model.User, error)
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetAll(ctx context.Context) ([]model.Snippet, error)
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	ListByUser(ctx context.Context, userID string) ([]model.Snippet, error)
	// ListPublic returns all public snippets, newest first.
	ListPublic(ctx context.Context) ([]model.Snippet, error)
	Update(ctx context.Context, id string, upd SnippetUpdate) (*model.Snippet, error)
	// Delete reports apperror.ErrNotFound if the id is absent.
	Delete(ctx context.Context, id string) error
	// IncrementViews adds one view. A missing id is a silent no-op.
	IncrementViews(ctx context.Context, id string) error
	// IncrementForkCount bumps the fork counter on the source snippet.
	IncrementForkCount(ctx context.Context, id string) error
}

type LikeRepository interface {
	// Add records a like. Adding a like that already exists is a no-op:
	// at most one Like exists per (user, snippet) pair.
	Add(ctx context.Context, userID, snippetID string) error
	// Remove reports whether a like was actually removed.
	Remove(ctx context.Context, userID, snippetID string) (bool, error)
	Exists(ctx context.Context, userID, snippetID string) (bool, error)
	// CountBySnippet is the single source of truth for a snippet's like count.
	CountBySnippet(ctx context.Context, snippetID string) (int, error)
}

type CollectionRepository interface {
	Create(ctx context.Context, collection *model.Collection) error
	GetByID(ctx context.Context, id string) (*model.Collection, error)
	ListByUser(ctx context.Context, userID string) ([]model.Collection, error)
	// Delete reports whether a collection was actually removed. Membership
	// rows go with it; member snippets are untouched (no cascade).
	Delete(ctx context.Context, id string) (bool, error)
	// AddSnippet / RemoveSnippet manage the membership join relation.
	// Adding an existing membership is a no-op.
	AddSnippet(ctx context.Context, collectionID, snippetID string) error
	RemoveSnippet(ctx context.Context, collectionID, snippetID string) (bool, error)
}
