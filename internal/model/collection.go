package model

import "time"

// Collection groups snippets under a named, user-owned heading.
//
// A collection references its snippets, it does not own them: membership is a
// join relation (collection ↔ snippet), so one snippet may appear in many
// collections, and deleting a collection never deletes its members.
//
// SnippetIDs is hydrated from the join relation on read; it is not a column
// on the collection record itself.
type Collection struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	IsPublic    bool      `json:"isPublic"    db:"is_public"`
	SnippetIDs  []string  `json:"snippetIds"  db:"-"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
