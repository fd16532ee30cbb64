package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrNoUsers           = errors.New("no users found")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrUserHasNotes      = errors.New("user has assigned notes")
)

// ValidationError marks malformed input rejected before any store access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type UserService struct {
	users  repository.UserRepository
	notes  repository.NoteRepository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, notes repository.NoteRepository, hasher PasswordHasher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, notes: notes, hasher: hasher, logger: logger}
}

// ListUsers returns projections of all users without password digests.
// Zero users is reported as ErrNoUsers rather than an empty success; the
// handler turns that into the 400 existing clients expect.
func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNoUsers
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(&u))
	}
	return out, nil
}

// CreateUser validates, rejects duplicate usernames, hashes the password and
// persists a new user. It returns the created username for the confirmation
// message; the assigned id and the digest are not echoed back.
func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (string, error) {
	if req.Username == "" || req.Password == "" || len(req.Roles) == 0 {
		return "", &ValidationError{Message: "All fields are required"}
	}

	// Fast-path duplicate check. The unique index on username remains the
	// authoritative guard: a concurrent insert between this lookup and the
	// Create below still surfaces as repository.ErrDuplicate.
	existing, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("duplicate check failed", "username", req.Username, "error", err)
		return "", err
	}
	if existing != nil {
		return "", ErrDuplicateUsername
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		return "", err
	}

	// Active is left unset; the store defaults it.
	user := models.User{
		Username: req.Username,
		Password: digest,
		Roles:    datatypes.NewJSONSlice(req.Roles),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrDuplicateUsername
		}
		if errors.Is(err, repository.ErrInvalidData) {
			return "", &ValidationError{Message: "Invalid user data received"}
		}
		s.logger.Error("failed to create user", "username", req.Username, "error", err)
		return "", err
	}

	return user.Username, nil
}

// UpdateUser replaces username, roles and active on the stored record and
// rehashes the password only when a new plaintext is supplied. A user may
// keep its own username; only a different record holding it is a conflict.
func (s *UserService) UpdateUser(ctx context.Context, req *dto.UpdateUserRequest) (string, error) {
	if req.ID == "" || req.Username == "" || len(req.Roles) == 0 || req.Active == nil {
		return "", &ValidationError{Message: "All fields are required"}
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return "", &ValidationError{Message: "Invalid user ID"}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		s.logger.Error("failed to fetch user", "id", id, "error", err)
		return "", err
	}

	duplicate, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("duplicate check failed", "username", req.Username, "error", err)
		return "", err
	}
	if duplicate != nil && duplicate.ID != user.ID {
		return "", ErrDuplicateUsername
	}

	user.Username = req.Username
	user.Roles = datatypes.NewJSONSlice(req.Roles)
	user.Active = *req.Active

	if req.Password != "" {
		digest, err := s.hasher.Hash(req.Password)
		if err != nil {
			s.logger.Error("password hashing failed", "error", err)
			return "", err
		}
		user.Password = digest
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrDuplicateUsername
		}
		s.logger.Error("failed to save user", "id", id, "error", err)
		return "", err
	}

	return user.Username, nil
}

// DeleteUser removes a user permanently. A user still owning notes is not
// deletable; the dependency check runs before the user lookup.
func (s *UserService) DeleteUser(ctx context.Context, rawID string) (*dto.DeletedUser, error) {
	if rawID == "" {
		return nil, &ValidationError{Message: "User ID is required"}
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid user ID"}
	}

	hasNotes, err := s.notes.ExistsForOwner(ctx, id)
	if err != nil {
		s.logger.Error("note dependency check failed", "id", id, "error", err)
		return nil, err
	}
	if hasNotes {
		return nil, ErrUserHasNotes
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to fetch user", "id", id, "error", err)
		return nil, err
	}

	if err := s.users.Delete(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to delete user", "id", id, "error", err)
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	return &dto.DeletedUser{ID: user.ID, Username: user.Username}, nil
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Roles:     []string(u.Roles),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
