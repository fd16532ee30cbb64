package repository

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the looked-up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a write violated a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidData indicates the store rejected the record's contents.
	ErrInvalidData = errors.New("invalid record data")
)

// UserRepository is the persistence contract for user records.
type UserRepository interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error
}

// NoteRepository exposes the single note query the user lifecycle needs:
// whether any note still references a given owner.
type NoteRepository interface {
	ExistsForOwner(ctx context.Context, ownerID uuid.UUID) (bool, error)
}
