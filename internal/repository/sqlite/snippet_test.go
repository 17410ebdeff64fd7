package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// createTestSnippet seeds a snippet owned by an existing user. The schema
// enforces the snippets → users foreign key, so the owner must be real.
func createTestSnippet(t *testing.T, db *DB, userID, title string, isPublic bool) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		UserID:   userID,
		Title:    title,
		Code:     "fmt.Println(\"hi\")",
		Language: "go",
		Tags:     []string{"demo"},
		IsPublic: isPublic,
	}
	if err := db.Snippets().Create(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return snippet
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestSnippetCreate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")

	snippet := &model.Snippet{
		UserID: user.ID,
		Title:  "Hello World",
		Code:   "print('hello')",
		// Counters intentionally dirty: the store must zero them.
		Views:     99,
		ForkCount: 99,
		Likes:     99,
	}
	if err := db.Snippets().Create(context.Background(), snippet); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("Create() did not set snippet.ID")
	}
	if snippet.Views != 0 || snippet.ForkCount != 0 || snippet.Likes != 0 {
		t.Errorf("counters = (%d, %d, %d), want all zeroed on create",
			snippet.Views, snippet.ForkCount, snippet.Likes)
	}
}

func TestSnippetCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	original := createTestSnippet(t, db, user.ID, "round trip", true)

	found, err := db.Snippets().GetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.Title != original.Title {
		t.Errorf("Title = %q, want %q", found.Title, original.Title)
	}
	if len(found.Tags) != 1 || found.Tags[0] != "demo" {
		t.Errorf("Tags = %v, want the JSON column decoded back to %v", found.Tags, original.Tags)
	}
	if !found.IsPublic {
		t.Error("IsPublic lost in the round trip")
	}
}

func TestSnippetGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Snippets().GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestSnippetListPublic_ExcludesPrivate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	createTestSnippet(t, db, user.ID, "public", true)
	createTestSnippet(t, db, user.ID, "private", false)

	snippets, err := db.Snippets().ListPublic(context.Background())
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(snippets) != 1 || snippets[0].Title != "public" {
		t.Errorf("ListPublic() = %+v, want only the public snippet", snippets)
	}
}

func TestSnippetListByUser(t *testing.T) {
	db := newTestDB(t)
	ada := createTestUser(t, db, "ada", "ada@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	createTestSnippet(t, db, ada.ID, "hers", true)
	createTestSnippet(t, db, bob.ID, "his", true)

	snippets, err := db.Snippets().ListByUser(context.Background(), ada.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(snippets) != 1 || snippets[0].Title != "hers" {
		t.Errorf("ListByUser() = %+v, want only ada's snippet", snippets)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestSnippetUpdate_MergesOnlyGivenFields(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	created := createTestSnippet(t, db, user.ID, "before", true)

	code := "updated code"
	isPublic := false
	updated, err := db.Snippets().Update(context.Background(), created.ID, repository.SnippetUpdate{
		Code:     &code,
		IsPublic: &isPublic,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Code != code {
		t.Errorf("Code = %q, want %q", updated.Code, code)
	}
	if updated.IsPublic {
		t.Error("IsPublic not flipped")
	}
	if updated.Title != "before" {
		t.Errorf("Title = %q, want unchanged %q", updated.Title, "before")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestSnippetUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	title := "ghost"
	_, err := db.Snippets().Update(context.Background(), "nonexistent", repository.SnippetUpdate{Title: &title})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestSnippetDelete_RemovesLikesToo(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	created := createTestSnippet(t, db, user.ID, "doomed", true)

	if err := db.Likes().Add(context.Background(), user.ID, created.ID); err != nil {
		t.Fatalf("setup: Add() error = %v", err)
	}

	if err := db.Snippets().Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	count, err := db.Likes().CountBySnippet(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("CountBySnippet() error = %v", err)
	}
	if count != 0 {
		t.Errorf("likes remaining after snippet delete = %d, want 0", count)
	}
}

func TestSnippetDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Snippets().Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// COUNTER TESTS
// =========================================================================

func TestSnippetIncrementViews(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	created := createTestSnippet(t, db, user.ID, "watched", true)

	for i := 0; i < 3; i++ {
		if err := db.Snippets().IncrementViews(context.Background(), created.ID); err != nil {
			t.Fatalf("IncrementViews() error = %v", err)
		}
	}

	found, _ := db.Snippets().GetByID(context.Background(), created.ID)
	if found.Views != 3 {
		t.Errorf("Views = %d, want 3", found.Views)
	}

	// Absent id is a silent no-op.
	if err := db.Snippets().IncrementViews(context.Background(), "nonexistent"); err != nil {
		t.Errorf("IncrementViews() on absent id error = %v, want nil", err)
	}
}

func TestSnippetIncrementForkCount(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	created := createTestSnippet(t, db, user.ID, "forked", true)

	if err := db.Snippets().IncrementForkCount(context.Background(), created.ID); err != nil {
		t.Fatalf("IncrementForkCount() error = %v", err)
	}

	found, _ := db.Snippets().GetByID(context.Background(), created.ID)
	if found.ForkCount != 1 {
		t.Errorf("ForkCount = %d, want 1", found.ForkCount)
	}

	err := db.Snippets().IncrementForkCount(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIKE RELATION TESTS
// =========================================================================

func TestLikes_DerivedCountOnRead(t *testing.T) {
	db := newTestDB(t)
	ada := createTestUser(t, db, "ada", "ada@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	created := createTestSnippet(t, db, ada.ID, "liked", true)

	db.Likes().Add(context.Background(), ada.ID, created.ID)
	db.Likes().Add(context.Background(), bob.ID, created.ID)
	// Duplicate add is a no-op, not a third like.
	db.Likes().Add(context.Background(), bob.ID, created.ID)

	found, err := db.Snippets().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Likes != 2 {
		t.Errorf("Likes = %d, want 2 derived from the relation", found.Likes)
	}

	removed, err := db.Likes().Remove(context.Background(), bob.ID, created.ID)
	if err != nil || !removed {
		t.Fatalf("Remove() = (%v, %v), want (true, nil)", removed, err)
	}
	// Removing a like that isn't there reports false.
	removed, err = db.Likes().Remove(context.Background(), bob.ID, created.ID)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if removed {
		t.Error("second Remove() reported a removal")
	}

	found, _ = db.Snippets().GetByID(context.Background(), created.ID)
	if found.Likes != 1 {
		t.Errorf("Likes = %d after removal, want 1", found.Likes)
	}
}
