package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/models"
)

// MaxNicknameLength is the longest nickname accepted, in characters.
const MaxNicknameLength = 30

// Repository is the slice of the data store the user service needs.
type Repository interface {
	Create(ctx context.Context, email, nickname string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int) error
}

// Service defines all user-related business operations
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, req UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

// RegisterRequest encapsulates all data needed to register a user
type RegisterRequest struct {
	Email    string
	Nickname string
}

// UpdateUserRequest changes the email, the nickname, or both. Nil fields are
// left as they are.
type UpdateUserRequest struct {
	UserID   int
	Email    *string
	Nickname *string
}

type service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Register creates a user after validating the email and nickname.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	nickname := strings.TrimSpace(req.Nickname)

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateNickname(nickname); err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, email, nickname)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return u, nil
}

// GetUser retrieves a user by ID
func (s *service) GetUser(ctx context.Context, id int) (*models.User, error) {
	if id <= 0 {
		return nil, ErrInvalidUserID
	}
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetUserByEmail retrieves a user by email address
func (s *service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateUser renames a user. A new email must not belong to anyone else.
func (s *service) UpdateUser(ctx context.Context, req UpdateUserRequest) (*models.User, error) {
	u, err := s.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		if err := validateEmail(u.Email); err != nil {
			return nil, err
		}
	}
	if req.Nickname != nil {
		u.Nickname = strings.TrimSpace(*req.Nickname)
		if err := validateNickname(u.Nickname); err != nil {
			return nil, err
		}
	}

	err = s.repo.UpdateUser(ctx, u)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		return nil, ErrEmailTaken
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// DeleteUser removes a user together with the boards they own.
func (s *service) DeleteUser(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrInvalidUserID
	}
	err := s.repo.DeleteUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func validateNickname(nickname string) error {
	if n := utf8.RuneCountInString(nickname); n == 0 || n > MaxNicknameLength {
		return ErrInvalidNickname
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	return nil
}
