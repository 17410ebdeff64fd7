// Package jsonfile implements the repository interfaces over plain JSON files.
//
// This is the catalog's original persistence model: one JSON document per
// entity namespace (users.json, snippets.json, collections.json, likes.json)
// in a single directory. Every mutating call synchronously rewrites the ENTIRE
// namespace file — no partial or append writes. That trades throughput for
// simplicity, which is acceptable because record counts are small. It is a
// single-writer design: two processes writing the same directory race with
// last-write-wins semantics, a documented limitation rather than a bug to fix.
//
// The in-process mutex only serializes goroutines within one server; it does
// not coordinate across processes.
//
// All reads return defensive copies, so no caller can mutate the store's
// state through an aliased pointer or slice.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sakif/codevault/internal/model"
)

const (
	usersFile       = "users.json"
	snippetsFile    = "snippets.json"
	collectionsFile = "collections.json"
	likesFile       = "likes.json"
)

// Store holds every namespace in memory and mirrors each one to a JSON file
// on mutation. Like the sqlite backend, it hands out one typed view per
// repository interface: Users(), Snippets(), Likes(), Collections().
type Store struct {
	mu  sync.Mutex
	dir string

	users       map[string]model.User
	snippets    map[string]model.Snippet
	collections map[string]model.Collection
	// likes maps snippet ID → set of user IDs. Persisted in the historical
	// wire format: snippet ID → list of "snippetID_userID" composite strings.
	likes map[string]map[string]bool
}

// New creates a Store rooted at dir, creating the directory if needed and
// loading whatever namespace files already exist. A missing file is simply
// an empty namespace.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: creating store directory: %w", err)
	}

	s := &Store{
		dir:         dir,
		users:       make(map[string]model.User),
		snippets:    make(map[string]model.Snippet),
		collections: make(map[string]model.Collection),
		likes:       make(map[string]map[string]bool),
	}

	var users []model.User
	if err := s.load(usersFile, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		s.users[u.ID] = u
	}

	var snippets []model.Snippet
	if err := s.load(snippetsFile, &snippets); err != nil {
		return nil, err
	}
	for _, sn := range snippets {
		s.snippets[sn.ID] = sn
	}

	var collections []model.Collection
	if err := s.load(collectionsFile, &collections); err != nil {
		return nil, err
	}
	for _, c := range collections {
		s.collections[c.ID] = c
	}

	var likes map[string][]string
	if err := s.load(likesFile, &likes); err != nil {
		return nil, err
	}
	for snippetID, keys := range likes {
		set := make(map[string]bool, len(keys))
		for _, key := range keys {
			// Composite key "snippetID_userID"; everything after the first
			// underscore past the snippet ID is the user ID.
			if len(key) > len(snippetID)+1 {
				set[key[len(snippetID)+1:]] = true
			}
		}
		s.likes[snippetID] = set
	}

	return s, nil
}

// load reads one namespace file into dst. A missing file is not an error.
func (s *Store) load(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("jsonfile: reading %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("jsonfile: decoding %s: %w", name, err)
	}
	return nil
}

// save rewrites one namespace file in full. Caller must hold s.mu.
func (s *Store) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: writing %s: %w", name, err)
	}
	return nil
}

func (s *Store) saveUsers() error {
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return s.save(usersFile, users)
}

func (s *Store) saveSnippets() error {
	snippets := make([]model.Snippet, 0, len(s.snippets))
	for _, sn := range s.snippets {
		snippets = append(snippets, sn)
	}
	return s.save(snippetsFile, snippets)
}

func (s *Store) saveCollections() error {
	collections := make([]model.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		collections = append(collections, c)
	}
	return s.save(collectionsFile, collections)
}

func (s *Store) saveLikes() error {
	likes := make(map[string][]string, len(s.likes))
	for snippetID, set := range s.likes {
		keys := make([]string, 0, len(set))
		for userID := range set {
			keys = append(keys, snippetID+"_"+userID)
		}
		likes[snippetID] = keys
	}
	return s.save(likesFile, likes)
}

// sortByTime orders items by a timestamp key, ascending or descending.
// The stores use it to present deterministic order even though the backing
// maps iterate randomly.
func sortByTime[T any](items []T, key func(T) time.Time, newestFirst bool) {
	sort.Slice(items, func(i, j int) bool {
		if newestFirst {
			return key(items[i]).After(key(items[j]))
		}
		return key(items[i]).Before(key(items[j]))
	})
}

// Users returns the UserRepository view.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Snippets returns the SnippetRepository view.
func (s *Store) Snippets() *SnippetStore { return &SnippetStore{s: s} }

// Likes returns the LikeRepository view.
func (s *Store) Likes() *LikeStore { return &LikeStore{s: s} }

// Collections returns the CollectionRepository view.
func (s *Store) Collections() *CollectionStore { return &CollectionStore{s: s} }
