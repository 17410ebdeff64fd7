package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// MaxCollectionNameLength bounds collection names the same way snippet
// titles are bounded.
const MaxCollectionNameLength = 100

// CollectionService groups snippets under named, user-owned collections.
// Collections reference snippets; they never own them.
type CollectionService struct {
	collections repository.CollectionRepository
	snippets    repository.SnippetRepository
	logger      *slog.Logger
}

// NewCollectionService creates a CollectionService.
func NewCollectionService(collections repository.CollectionRepository, snippets repository.SnippetRepository, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		collections: collections,
		snippets:    snippets,
		logger:      logger,
	}
}

// Create makes a new, empty collection owned by ownerID.
func (s *CollectionService) Create(ctx context.Context, ownerID, name, description string, isPublic bool) (*model.Collection, error) {
	if ownerID == "" {
		return nil, apperror.ValidationFailed("userId", "collection owner is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "collection name is required")
	}
	if len(name) > MaxCollectionNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("collection name must be %d characters or less", MaxCollectionNameLength))
	}

	collection := &model.Collection{
		UserID:      ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		IsPublic:    isPublic,
	}
	if err := s.collections.Create(ctx, collection); err != nil {
		s.logger.Error("failed to create collection",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	s.logger.Info("collection created",
		slog.String("id", collection.ID),
		slog.String("userID", ownerID),
	)

	return collection, nil
}

// ListForUser returns all collections owned by userID, newest first.
func (s *CollectionService) ListForUser(ctx context.Context, userID string) ([]model.Collection, error) {
	collections, err := s.collections.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list collections", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return collections, nil
}

// Delete removes a collection the caller owns, reporting whether anything
// was removed. Deleting an absent collection is not an error (idempotent
// delete); member snippets are never touched.
func (s *CollectionService) Delete(ctx context.Context, id, callerID string) (bool, error) {
	existing, err := s.collections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if callerID != existing.UserID {
		return false, apperror.Forbidden("only the owner can delete this collection")
	}

	removed, err := s.collections.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deleting collection %s: %w", id, err)
	}

	if removed {
		s.logger.Info("collection deleted", slog.String("id", id))
	}
	return removed, nil
}

// AddSnippet puts a snippet into a collection the caller owns. The snippet
// must exist at add time; the membership may dangle later if the snippet is
// deleted, and readers must tolerate that.
func (s *CollectionService) AddSnippet(ctx context.Context, collectionID, snippetID, callerID string) error {
	collection, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}
	if callerID != collection.UserID {
		return apperror.Forbidden("only the owner can modify this collection")
	}
	if _, err := s.snippets.GetByID(ctx, snippetID); err != nil {
		return err
	}

	if err := s.collections.AddSnippet(ctx, collectionID, snippetID); err != nil {
		return fmt.Errorf("adding snippet %s to collection %s: %w", snippetID, collectionID, err)
	}
	return nil
}

// RemoveSnippet takes a snippet out of a collection the caller owns,
// reporting whether a membership was actually removed.
func (s *CollectionService) RemoveSnippet(ctx context.Context, collectionID, snippetID, callerID string) (bool, error) {
	collection, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return false, err
	}
	if callerID != collection.UserID {
		return false, apperror.Forbidden("only the owner can modify this collection")
	}

	removed, err := s.collections.RemoveSnippet(ctx, collectionID, snippetID)
	if err != nil {
		return false, fmt.Errorf("removing snippet %s from collection %s: %w", snippetID, collectionID, err)
	}
	return removed, nil
}
