package model

import "time"

// Like records that a user likes a snippet. Its presence IS the like — there
// is no separate counter to keep in sync. At most one Like may exist per
// (user, snippet) pair; the stores enforce that uniqueness.
type Like struct {
	UserID    string    `json:"userId"    db:"user_id"`
	SnippetID string    `json:"snippetId" db:"snippet_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
