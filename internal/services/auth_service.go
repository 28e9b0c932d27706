package services

import (
	"context"
	"errors"
	"fmt"

	"fintechbank_backend/internal/models"
	"fintechbank_backend/internal/repositories"
	"fintechbank_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrNotAuthenticated   = errors.New("could not validate credentials")
	ErrUserExists         = errors.New("a user with this username or email already exists")
)

// --- AuthService Interface ---
type AuthService interface {
	LoginUser(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
	// AuthenticateToken resolves the user behind a bearer token. Any failure
	// wraps ErrNotAuthenticated or ErrInactiveUser.
	AuthenticateToken(ctx context.Context, token string) (*models.User, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	// CreateAdmin registers an active administrator account.
	CreateAdmin(ctx context.Context, username, email, password string) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	tokens   *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, tokens *utils.TokenManager) AuthService {
	return &authService{
		authRepo: authRepo,
		tokens:   tokens,
	}
}

// LoginUser checks the credentials and issues an access token.
func (s *authService) LoginUser(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	user, err := s.authRepo.FindUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !CheckPassword(user.HashedPassword, creds.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &models.TokenResponse{AccessToken: accessToken, TokenType: "bearer"}, nil
}

func (s *authService) AuthenticateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	user, err := s.authRepo.FindUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %q", ErrNotAuthenticated, claims.Subject)
		}
		return nil, fmt.Errorf("failed to resolve token user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	user.HashedPassword = ""
	return user, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.HashedPassword = "" // Ensure password hash is not exposed
	return user, nil
}

func (s *authService) CreateAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := CheckPasswordStrength(password); err != nil {
		return nil, err
	}
	exists, err := s.authRepo.UserExists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		IsActive:       true,
		IsAdmin:        true,
	}
	if err := s.authRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}
