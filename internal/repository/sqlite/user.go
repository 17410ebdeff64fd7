package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// some distant call site. This is a Go best practice for any implementation.
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository over the shared connection.
type UserStore struct {
	conn *sql.DB
}

// Create inserts a new user. The store generates the ID (xid: 20 chars,
// URL-safe, sortable by creation time) and stamps both timestamps.
//
// Duplicate email/username surface here as UNIQUE constraint violations; the
// session service checks for duplicates first to return the precise error,
// so hitting the constraint means a race or a programming bug — we return it
// as a plain wrapped error.
func (db *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, bio, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Bio,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

const userColumns = `id, username, email, password_hash, bio, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Bio,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetAll returns every user, oldest first.
func (db *UserStore) GetAll(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email. Emails are matched case-insensitively
// since they are stored lowercased by the session service.
func (db *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// GetByUsername retrieves a user by username.
func (db *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username: %w", err)
	}
	return u, nil
}

// Update merges the non-nil fields of upd into the stored user and refreshes
// updated_at. "Fetch then update": we read the record first so the UPDATE
// carries complete values, and the not-found check happens before any write.
func (db *UserStore) Update(ctx context.Context, id string, upd repository.UserUpdate) (*model.User, error) {
	user, err := db.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		user.Username = *upd.Username
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	user.UpdatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, bio = ?, updated_at = ? WHERE id = ?`,
		user.Username,
		user.Bio,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}

	return user, nil
}
