package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"choir-library/internal/domain"
	"choir-library/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRegistrationCode indicates the registration code matches neither role.
	ErrInvalidRegistrationCode = errors.New("invalid registration code")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password, providedCode string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users      repository.UserRepository
	memberCode string
	adminCode  string
}

// NewUserService wires the user repository to the two shared registration
// codes: the member code registers members, the admin code registers admins.
func NewUserService(users repository.UserRepository, memberCode, adminCode string) UserService {
	return &userService{
		users:      users,
		memberCode: strings.TrimSpace(memberCode),
		adminCode:  strings.TrimSpace(adminCode),
	}
}

func (s *userService) Register(ctx context.Context, username, password, providedCode string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	providedCode = strings.TrimSpace(providedCode)
	password = strings.TrimSpace(password)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrBadRequest)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrBadRequest)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrBadRequest)
	}

	role, err := s.roleForCode(providedCode)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) roleForCode(code string) (domain.Role, error) {
	if s.memberCode == "" && s.adminCode == "" {
		return "", fmt.Errorf("registration codes are not configured")
	}
	if s.adminCode != "" && subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) == 1 {
		return domain.RoleAdmin, nil
	}
	if s.memberCode != "" && subtle.ConstantTimeCompare([]byte(code), []byte(s.memberCode)) == 1 {
		return domain.RoleMember, nil
	}
	return "", ErrInvalidRegistrationCode
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
