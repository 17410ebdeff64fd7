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

// Validation constants. Named (not magic numbers) so they're easy to find,
// self-documenting, and referenceable in error messages.
const (
	MaxTitleLength = 100
	MaxCodeLength  = 100000 // ~100KB of code

	// ForkTitleSuffix marks a forked copy in its title.
	ForkTitleSuffix = " (Forked)"
)

// SnippetService holds the business rules layered on the entity store:
// validation, ownership, visibility, search, view counting, liking, forking.
type SnippetService struct {
	snippets repository.SnippetRepository
	likes    repository.LikeRepository
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService. The caller decides which store
// implementations to inject — sqlite, jsonfile, or fakes in tests.
func NewSnippetService(snippets repository.SnippetRepository, likes repository.LikeRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		likes:    likes,
		logger:   logger,
	}
}

// CreateSnippetInput carries the caller-settable fields for a new snippet.
// The service assigns everything else: ID, owner, zeroed counters, timestamps.
type CreateSnippetInput struct {
	Title       string
	Description string
	Code        string
	Language    string
	Tags        []string
	IsPublic    bool
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	return title, nil
}

// Create validates and saves a new snippet owned by ownerID.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in CreateSnippetInput) (*model.Snippet, error) {
	if ownerID == "" {
		return nil, apperror.ValidationFailed("userId", "snippet owner is required")
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if len(in.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	snippet := &model.Snippet{
		UserID:      ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Code:        in.Code,
		Language:    strings.TrimSpace(in.Language),
		Tags:        in.Tags,
		IsPublic:    in.IsPublic,
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("userID", ownerID),
	)

	return snippet, nil
}

// GetByID retrieves a snippet, enforcing visibility: a private snippet is
// visible only to its owner. Anyone else gets NotFound — not Forbidden — so
// the existence of a private snippet doesn't leak.
func (s *SnippetService) GetByID(ctx context.Context, id, viewerID string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !snippet.IsPublic && snippet.UserID != viewerID {
		return nil, apperror.NotFound("snippet", id)
	}

	return snippet, nil
}

// ListForUser returns a user's snippets, newest first. Private snippets are
// included only when the owner is the one asking.
func (s *SnippetService) ListForUser(ctx context.Context, userID, viewerID string) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	if userID == viewerID {
		return snippets, nil
	}
	visible := []model.Snippet{}
	for _, sn := range snippets {
		if sn.IsPublic {
			visible = append(visible, sn)
		}
	}
	return visible, nil
}

// Search filters public snippets, newest first.
//
// The three filters compose with AND:
//   - query: case-insensitive substring against title OR description OR code
//     (a match in any one field qualifies); empty query matches everything
//   - language: exact match, if given
//   - tags: the snippet must carry ANY of the requested tags (union, not
//     intersection), if the list is non-empty
//
// Filtering happens here, over ListPublic, rather than in SQL — both backends
// get identical semantics and the record counts are small.
func (s *SnippetService) Search(ctx context.Context, query, language string, tags []string) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListPublic(ctx)
	if err != nil {
		s.logger.Error("search failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching snippets: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	results := []model.Snippet{}
	for _, sn := range snippets {
		if q != "" &&
			!strings.Contains(strings.ToLower(sn.Title), q) &&
			!strings.Contains(strings.ToLower(sn.Description), q) &&
			!strings.Contains(strings.ToLower(sn.Code), q) {
			continue
		}
		if language != "" && sn.Language != language {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(&sn, tags) {
			continue
		}
		results = append(results, sn)
	}

	return results, nil
}

func hasAnyTag(sn *model.Snippet, tags []string) bool {
	for _, tag := range tags {
		if sn.HasTag(tag) {
			return true
		}
	}
	return false
}

// Update applies a partial update to a snippet the caller owns.
// The update struct physically cannot express changes to the identifier,
// owner, or creation time; the store refreshes UpdatedAt.
func (s *SnippetService) Update(ctx context.Context, id, callerID string, upd repository.SnippetUpdate) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	existing, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != "" && callerID != existing.UserID {
		return nil, apperror.Forbidden("only the owner can update this snippet")
	}

	if upd.Title != nil {
		title, err := validateTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if upd.Code != nil && len(*upd.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	snippet, err := s.snippets.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snippet updated", slog.String("id", id))
	return snippet, nil
}

// Delete removes a snippet the caller owns.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) Delete(ctx context.Context, id, callerID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	existing, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != "" && callerID != existing.UserID {
		return apperror.Forbidden("only the owner can delete this snippet")
	}

	if err := s.snippets.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// IncrementViews counts one view. Each call counts exactly one — repeat
// viewers are not deduplicated. A missing snippet is a silent no-op.
func (s *SnippetService) IncrementViews(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return s.snippets.IncrementViews(ctx, id)
}

// ToggleLike flips the (user, snippet) like: present → removed, absent →
// added. Returns whether the snippet is now liked and the resulting count.
//
// The count comes from the like relation itself, so toggling twice always
// returns to the starting count and the number shown can never drift from
// the set of likes actually recorded.
func (s *SnippetService) ToggleLike(ctx context.Context, snippetID, userID string) (liked bool, likes int, err error) {
	if userID == "" {
		return false, 0, apperror.ValidationFailed("userId", "user ID is required")
	}
	if _, err := s.snippets.GetByID(ctx, snippetID); err != nil {
		return false, 0, err
	}

	exists, err := s.likes.Exists(ctx, userID, snippetID)
	if err != nil {
		return false, 0, fmt.Errorf("toggling like: %w", err)
	}

	if exists {
		if _, err := s.likes.Remove(ctx, userID, snippetID); err != nil {
			return false, 0, fmt.Errorf("toggling like: %w", err)
		}
	} else {
		if err := s.likes.Add(ctx, userID, snippetID); err != nil {
			return false, 0, fmt.Errorf("toggling like: %w", err)
		}
	}

	count, err := s.likes.CountBySnippet(ctx, snippetID)
	if err != nil {
		return false, 0, fmt.Errorf("counting likes: %w", err)
	}

	return !exists, count, nil
}

// Fork copies a snippet into the caller's own catalog.
//
// The fork gets a fresh identifier, the caller as owner, "(Forked)" appended
// to the title, ForkedFrom set, and all counters reset to zero. The original
// must exist at fork time (NotFound otherwise) and its fork count goes up by
// one — but the copy is point-in-time: deleting the original later leaves a
// dangling ForkedFrom reference, by design.
func (s *SnippetService) Fork(ctx context.Context, userID, originalID string) (*model.Snippet, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	original, err := s.snippets.GetByID(ctx, originalID)
	if err != nil {
		return nil, err
	}

	fork := &model.Snippet{
		UserID:      userID,
		Title:       original.Title + ForkTitleSuffix,
		Description: original.Description,
		Code:        original.Code,
		Language:    original.Language,
		Tags:        append([]string(nil), original.Tags...),
		IsPublic:    original.IsPublic,
		ForkedFrom:  original.ID,
	}
	if err := s.snippets.Create(ctx, fork); err != nil {
		return nil, fmt.Errorf("forking snippet %s: %w", originalID, err)
	}

	if err := s.snippets.IncrementForkCount(ctx, original.ID); err != nil {
		// The fork itself succeeded; a lost counter bump is worth a log
		// line but not a failed operation.
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to bump fork count",
				slog.String("id", original.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("snippet forked",
		slog.String("original", original.ID),
		slog.String("fork", fork.ID),
		slog.String("userID", userID),
	)

	return fork, nil
}
