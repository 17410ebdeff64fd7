package jsonfile

import (
	"context"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository over the shared Store.
type UserStore struct {
	s *Store
}

// Create inserts a new user, generating its ID and stamping both timestamps,
// then rewrites the users namespace.
func (us *UserStore) Create(_ context.Context, user *model.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	us.s.users[user.ID] = *user
	return us.s.saveUsers()
}

// GetAll returns every user, oldest first.
func (us *UserStore) GetAll(_ context.Context) ([]model.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	users := make([]model.User, 0, len(us.s.users))
	for _, u := range us.s.users {
		users = append(users, u)
	}
	sortByTime(users, func(u model.User) time.Time { return u.CreatedAt }, false)
	return users, nil
}

func (us *UserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	// u is already a copy — map values are copied on read
	return &u, nil
}

func (us *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range us.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (us *UserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	for _, u := range us.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

// Update merges the non-nil fields into the stored user, refreshes UpdatedAt,
// and rewrites the namespace. Absent id → not-found signal, store untouched.
func (us *UserStore) Update(_ context.Context, id string, upd repository.UserUpdate) (*model.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}

	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	u.UpdatedAt = time.Now()

	us.s.users[id] = u
	if err := us.s.saveUsers(); err != nil {
		return nil, err
	}
	return &u, nil
}
