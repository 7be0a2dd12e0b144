package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SudaisX/DB-Project/internal/auth"
	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/event"
	"github.com/SudaisX/DB-Project/internal/repository"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

// errInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var errInvalidCredentials = apperrors.Unauthorized("invalid email or password")

// UserService implements registration, login, self-service profile and the
// admin user directory.
type UserService struct {
	users    repository.UserRepository
	jwt      *auth.JWTManager
	hasher   *auth.BcryptHasher
	producer *event.Producer
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	jwt *auth.JWTManager,
	hasher *auth.BcryptHasher,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		jwt:      jwt,
		hasher:   hasher,
		producer: producer,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var errBlankName = apperrors.InvalidInput("name must not be blank")

// trimName trims a supplied name in place. A name made only of whitespace is
// rejected; nil and "" mean the name was not supplied.
func trimName(name *string) error {
	if name == nil || *name == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return errBlankName
	}
	*name = trimmed
	return nil
}

// Register creates an account and returns its identity with a fresh token.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errBlankName
	}
	email := normalizeEmail(input.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.AlreadyExists("user", "email", email)
	case !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.authResult(user)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return result, nil
}

// Login checks the credentials and returns the identity with a fresh token.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, input.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errInvalidCredentials
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return s.authResult(user)
}

// Authenticate resolves a bearer token to the identity of an existing user.
func (s *UserService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	userID, err := s.jwt.Verify(token)
	if err != nil {
		return domain.Identity{}, apperrors.Unauthorized("not authorized, token failed")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domain.Identity{}, apperrors.Unauthorized("not authorized, token failed")
		}
		return domain.Identity{}, fmt.Errorf("resolve token subject: %w", err)
	}
	return user.Identity(), nil
}

// Profile returns the caller's own record.
func (s *UserService) Profile(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	return s.users.GetByID(ctx, caller.ID)
}

// UpdateProfile applies the caller's own changes and re-issues a token. A
// supplied password is re-hashed; the admin flag cannot be changed here.
func (s *UserService) UpdateProfile(ctx context.Context, caller domain.Identity, upd domain.UserUpdate) (*domain.AuthResult, error) {
	if err := trimName(upd.Name); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	upd.IsAdmin = nil
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		upd.Email = &email
	}
	upd.Apply(user)

	if upd.Password != nil && *upd.Password != "" {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return s.authResult(user)
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateUser applies an admin's changes to name, email and admin flag.
// Passwords are not changed through this path.
func (s *UserService) UpdateUser(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	if err := trimName(upd.Name); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	upd.Password = nil
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		upd.Email = &email
	}
	upd.Apply(user)

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user who owns no orders.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.producer.PublishUserDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id))
	return nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user updated", slog.String("user_id", user.ID))
	return nil
}

func (s *UserService) authResult(user *domain.User) (*domain.AuthResult, error) {
	token, err := s.jwt.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.AuthResult{Identity: user.Identity(), Token: token}, nil
}
