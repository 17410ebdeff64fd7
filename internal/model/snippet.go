package model

import "time"

// Snippet represents a saved code snippet.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize this
// struct to/from JSON; the `db:"..."` tags document the column names used by
// the sqlite store.
//
// COUNTER SEMANTICS:
// Views and ForkCount are persisted on the snippet row and only move through
// IncrementViews / Fork. Likes is NOT persisted here — it is derived from the
// Like relation on every read, so the displayed count can never drift from
// the true number of likes. That's why its db tag is "-".
//
// ForkedFrom holds the ID of the snippet this one was forked from, or "" for
// an original. Forking is a point-in-time copy, not a live link: the referenced
// snippet must exist at fork time, but may be deleted later and the reference
// is left dangling.
type Snippet struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Code        string    `json:"code"        db:"code"`
	Language    string    `json:"language"    db:"language"`
	Tags        []string  `json:"tags"        db:"tags"`
	IsPublic    bool      `json:"isPublic"    db:"is_public"`
	ForkedFrom  string    `json:"forkedFrom,omitempty" db:"forked_from"`
	ForkCount   int       `json:"forkCount"   db:"fork_count"`
	Views       int       `json:"views"       db:"views"`
	Likes       int       `json:"likes"       db:"-"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// HasTag reports whether the snippet carries the given tag.
// Tag order is irrelevant; the slice is treated as a set.
func (s *Snippet) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
