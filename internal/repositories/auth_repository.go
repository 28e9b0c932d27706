package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"fintechbank_backend/internal/models"
)

// AuthRepository defines the interface for user (API operator) storage.
type AuthRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	// UserExists reports whether any user already has the given username or email.
	UserExists(ctx context.Context, username, email string) (bool, error)
}

const userColumns = `id, username, email, hashed_password, is_active, is_admin, created_at`

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB // The direct database connection pool
}

// NewAuthRepository creates a PostgreSQL-backed AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user. ID and CreatedAt are assigned by the database.
func (r *authRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, hashed_password, is_active, is_admin)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.HashedPassword, user.IsActive, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return translateWriteError(err, "creating user")
	}
	return nil
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword,
		&user.IsActive, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindUserByUsername retrieves a user, including the password hash, by username.
func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound // Use the common repository error
		}
		return nil, fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, nil
}

// FindUserByID retrieves a user by ID.
func (r *authRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func (r *authRepository) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`, username, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking existing user %s: %v", ErrDatabaseError, username, err)
	}
	return exists, nil
}

// InMemoryAuthRepository is the process-local AuthRepository used with the
// memory storage driver and in tests.
type InMemoryAuthRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]models.User
}

func NewInMemoryAuthRepository() *InMemoryAuthRepository {
	return &InMemoryAuthRepository{users: make(map[int64]models.User)}
}

func (r *InMemoryAuthRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w (constraint: users_username_key)", ErrDuplicateKey)
		}
		if u.Email == user.Email {
			return fmt.Errorf("%w (constraint: users_email_key)", ErrDuplicateKey)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryAuthRepository) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryAuthRepository) FindUserByID(_ context.Context, userID int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *InMemoryAuthRepository) UserExists(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
