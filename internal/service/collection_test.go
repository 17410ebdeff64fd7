package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// =========================================================================
// FAKE COLLECTION REPOSITORY
// =========================================================================

type fakeCollectionRepo struct {
	collections map[string]*model.Collection
	members     map[string]map[string]bool // collectionID → set of snippetIDs
	nextID      int
}

func newFakeCollectionRepo() *fakeCollectionRepo {
	return &fakeCollectionRepo{
		collections: make(map[string]*model.Collection),
		members:     make(map[string]map[string]bool),
	}
}

func (m *fakeCollectionRepo) Create(_ context.Context, c *model.Collection) error {
	m.nextID++
	c.ID = fmt.Sprintf("coll-%d", m.nextID)
	c.CreatedAt = time.Now()
	stored := *c
	m.collections[c.ID] = &stored
	return nil
}

func (m *fakeCollectionRepo) GetByID(_ context.Context, id string) (*model.Collection, error) {
	c, ok := m.collections[id]
	if !ok {
		return nil, apperror.NotFound("collection", id)
	}
	result := *c
	for snippetID := range m.members[id] {
		result.SnippetIDs = append(result.SnippetIDs, snippetID)
	}
	return &result, nil
}

func (m *fakeCollectionRepo) ListByUser(_ context.Context, userID string) ([]model.Collection, error) {
	result := []model.Collection{}
	for _, c := range m.collections {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *fakeCollectionRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.collections[id]; !ok {
		return false, nil
	}
	delete(m.collections, id)
	delete(m.members, id)
	return true, nil
}

func (m *fakeCollectionRepo) AddSnippet(_ context.Context, collectionID, snippetID string) error {
	if _, ok := m.collections[collectionID]; !ok {
		return apperror.NotFound("collection", collectionID)
	}
	if m.members[collectionID] == nil {
		m.members[collectionID] = make(map[string]bool)
	}
	m.members[collectionID][snippetID] = true
	return nil
}

func (m *fakeCollectionRepo) RemoveSnippet(_ context.Context, collectionID, snippetID string) (bool, error) {
	if !m.members[collectionID][snippetID] {
		return false, nil
	}
	delete(m.members[collectionID], snippetID)
	return true, nil
}

var _ repository.CollectionRepository = (*fakeCollectionRepo)(nil)

// =========================================================================
// TEST HELPER
// =========================================================================

// newTestCollectionService wires the collection service with a snippet repo
// alongside it, since membership adds verify the snippet exists.
func newTestCollectionService(t *testing.T) (*CollectionService, *fakeSnippetRepo) {
	t.Helper()
	snippets := newFakeSnippetRepo()
	svc := NewCollectionService(newFakeCollectionRepo(), snippets, testLogger())
	return svc, snippets
}

func seedSnippet(t *testing.T, repo *fakeSnippetRepo, owner, title string) *model.Snippet {
	t.Helper()
	s := &model.Snippet{UserID: owner, Title: title, IsPublic: true}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("setup: seeding snippet: %v", err)
	}
	return s
}

// =========================================================================
// CREATE / LIST TESTS
// =========================================================================

func TestCollectionCreate_Success(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	c, err := svc.Create(context.Background(), "user-1", "Go Recipes", "useful bits", false)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.ID == "" {
		t.Error("expected collection to have an ID")
	}
	if len(c.SnippetIDs) != 0 {
		t.Errorf("new collection has %d members, want 0", len(c.SnippetIDs))
	}
}

func TestCollectionCreate_EmptyName(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	_, err := svc.Create(context.Background(), "user-1", "   ", "", false)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestCollectionListForUser_OnlyOwn(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	svc.Create(context.Background(), "user-1", "mine", "", false)
	svc.Create(context.Background(), "user-2", "theirs", "", false)

	collections, err := svc.ListForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(collections) != 1 || collections[0].Name != "mine" {
		t.Errorf("ListForUser() = %+v, want only user-1's collection", collections)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestCollectionDelete_IdempotentOnAbsent(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	removed, err := svc.Delete(context.Background(), "nonexistent", "user-1")
	if err != nil {
		t.Fatalf("Delete() error = %v, want nil for absent collection", err)
	}
	if removed {
		t.Error("Delete() reported removal of a collection that never existed")
	}
}

func TestCollectionDelete_WrongOwner(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	c, _ := svc.Create(context.Background(), "owner", "mine", "", false)

	_, err := svc.Delete(context.Background(), c.ID, "intruder")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestCollectionDelete_LeavesSnippetsAlone(t *testing.T) {
	svc, snippets := newTestCollectionService(t)

	sn := seedSnippet(t, snippets, "owner", "survivor")
	c, _ := svc.Create(context.Background(), "owner", "doomed", "", false)
	if err := svc.AddSnippet(context.Background(), c.ID, sn.ID, "owner"); err != nil {
		t.Fatalf("setup: AddSnippet() error = %v", err)
	}

	removed, err := svc.Delete(context.Background(), c.ID, "owner")
	if err != nil || !removed {
		t.Fatalf("Delete() = (%v, %v), want (true, nil)", removed, err)
	}

	// The collection referenced the snippet; it never owned it.
	if _, err := snippets.GetByID(context.Background(), sn.ID); err != nil {
		t.Errorf("member snippet gone after collection delete: %v", err)
	}
}

// =========================================================================
// MEMBERSHIP TESTS
// =========================================================================

func TestAddSnippet_RequiresExistingSnippet(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	c, _ := svc.Create(context.Background(), "owner", "mine", "", false)

	err := svc.AddSnippet(context.Background(), c.ID, "nonexistent", "owner")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAddSnippet_WrongOwner(t *testing.T) {
	svc, snippets := newTestCollectionService(t)

	sn := seedSnippet(t, snippets, "anyone", "public thing")
	c, _ := svc.Create(context.Background(), "owner", "mine", "", false)

	err := svc.AddSnippet(context.Background(), c.ID, sn.ID, "intruder")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestMembership_AddRemoveRoundTrip(t *testing.T) {
	svc, snippets := newTestCollectionService(t)

	sn := seedSnippet(t, snippets, "owner", "member")
	c, _ := svc.Create(context.Background(), "owner", "mine", "", false)

	if err := svc.AddSnippet(context.Background(), c.ID, sn.ID, "owner"); err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}
	// Adding again is a no-op, not an error.
	if err := svc.AddSnippet(context.Background(), c.ID, sn.ID, "owner"); err != nil {
		t.Fatalf("second AddSnippet() error = %v", err)
	}

	removed, err := svc.RemoveSnippet(context.Background(), c.ID, sn.ID, "owner")
	if err != nil {
		t.Fatalf("RemoveSnippet() error = %v", err)
	}
	if !removed {
		t.Error("RemoveSnippet() reported nothing removed")
	}

	// A second removal finds nothing.
	removed, err = svc.RemoveSnippet(context.Background(), c.ID, sn.ID, "owner")
	if err != nil {
		t.Fatalf("RemoveSnippet() error = %v", err)
	}
	if removed {
		t.Error("second RemoveSnippet() reported a removal")
	}
}
