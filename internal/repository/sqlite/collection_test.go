package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
)

func createTestCollection(t *testing.T, db *DB, userID, name string) *model.Collection {
	t.Helper()
	c := &model.Collection{UserID: userID, Name: name}
	if err := db.Collections().Create(context.Background(), c); err != nil {
		t.Fatalf("failed to create test collection: %v", err)
	}
	return c
}

func TestCollectionCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")

	created := createTestCollection(t, db, user.ID, "Go Recipes")
	if created.ID == "" {
		t.Error("Create() did not set collection.ID")
	}

	found, err := db.Collections().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Go Recipes" {
		t.Errorf("Name = %q, want %q", found.Name, "Go Recipes")
	}
	if len(found.SnippetIDs) != 0 {
		t.Errorf("new collection has %d members, want 0", len(found.SnippetIDs))
	}
}

func TestCollectionGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Collections().GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCollectionMembership_Hydrated(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	snippet := createTestSnippet(t, db, user.ID, "member", true)
	c := createTestCollection(t, db, user.ID, "mine")

	if err := db.Collections().AddSnippet(context.Background(), c.ID, snippet.ID); err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}
	// Duplicate membership is a no-op.
	if err := db.Collections().AddSnippet(context.Background(), c.ID, snippet.ID); err != nil {
		t.Fatalf("second AddSnippet() error = %v", err)
	}

	found, err := db.Collections().GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(found.SnippetIDs) != 1 || found.SnippetIDs[0] != snippet.ID {
		t.Errorf("SnippetIDs = %v, want exactly [%s]", found.SnippetIDs, snippet.ID)
	}

	removed, err := db.Collections().RemoveSnippet(context.Background(), c.ID, snippet.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveSnippet() = (%v, %v), want (true, nil)", removed, err)
	}
	removed, _ = db.Collections().RemoveSnippet(context.Background(), c.ID, snippet.ID)
	if removed {
		t.Error("second RemoveSnippet() reported a removal")
	}
}

func TestCollectionListByUser_HydratesEach(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	snippet := createTestSnippet(t, db, user.ID, "member", true)

	c1 := createTestCollection(t, db, user.ID, "first")
	createTestCollection(t, db, user.ID, "second")
	db.Collections().AddSnippet(context.Background(), c1.ID, snippet.ID)

	collections, err := db.Collections().ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(collections) != 2 {
		t.Fatalf("ListByUser() returned %d collections, want 2", len(collections))
	}

	var memberCounts []int
	for _, c := range collections {
		memberCounts = append(memberCounts, len(c.SnippetIDs))
	}
	if memberCounts[0]+memberCounts[1] != 1 {
		t.Errorf("membership counts = %v, want exactly one membership total", memberCounts)
	}
}

func TestCollectionDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ada", "ada@example.com")
	snippet := createTestSnippet(t, db, user.ID, "survivor", true)
	c := createTestCollection(t, db, user.ID, "doomed")
	db.Collections().AddSnippet(context.Background(), c.ID, snippet.ID)

	removed, err := db.Collections().Delete(context.Background(), c.ID)
	if err != nil || !removed {
		t.Fatalf("Delete() = (%v, %v), want (true, nil)", removed, err)
	}

	// The member snippet survives — collections reference, they don't own.
	if _, err := db.Snippets().GetByID(context.Background(), snippet.ID); err != nil {
		t.Errorf("member snippet gone after collection delete: %v", err)
	}

	// Deleting again reports nothing removed.
	removed, err = db.Collections().Delete(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed {
		t.Error("second Delete() reported a removal")
	}
}
