package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ecoforge/apiserver/internal/store"
	"github.com/ecoforge/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username/password pair does
// not authenticate. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidInput is returned when registration input is unusable:
// empty username or password, or a password beyond bcrypt's limit.
var ErrInvalidInput = errors.New("invalid input")

// bcrypt silently ignores bytes past 72, so longer passwords are
// rejected instead of truncated.
const maxPasswordBytes = 72

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates registration and authentication use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register hashes the password and creates the account. The raw
// password never reaches the store; duplicate usernames surface as
// store.ErrDuplicate straight from the unique index.
func (s *UserService) Register(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, ErrInvalidInput
	}
	if len(password) > maxPasswordBytes {
		return types.User{}, ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		PasswordHash: string(hashed),
	})
}

// Authenticate verifies the password against the stored bcrypt hash.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}
