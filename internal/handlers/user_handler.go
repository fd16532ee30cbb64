package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// UserLifecycle is the service surface the handler needs. The concrete
// implementation is services.UserService.
type UserLifecycle interface {
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (string, error)
	UpdateUser(ctx context.Context, req *dto.UpdateUserRequest) (string, error)
	DeleteUser(ctx context.Context, id string) (*dto.DeletedUser, error)
}

type UserHandler struct {
	service UserLifecycle
}

func NewUserHandler(service UserLifecycle) *UserHandler {
	return &UserHandler{service: service}
}

// List returns all users without password digests. An empty table is a 400,
// not an empty 200 array; existing clients depend on that.
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		if errors.Is(err, services.ErrNoUsers) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "No users found",
			})
		}
		return err
	}

	return c.JSON(users)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	username, err := h.service.CreateUser(c.UserContext(), &req)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: vErr.Message,
			})
		case errors.Is(err, services.ErrDuplicateUsername):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Duplicate username",
			})
		default:
			return err
		}
	}

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{
		Message: fmt.Sprintf("New user %s created", username),
	})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	username, err := h.service.UpdateUser(c.UserContext(), &req)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: vErr.Message,
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		case errors.Is(err, services.ErrDuplicateUsername):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Duplicate username",
			})
		default:
			return err
		}
	}

	return c.JSON(dto.MessageResponse{
		Message: fmt.Sprintf("%s updated", username),
	})
}

// Delete removes a user. Unlike create/update, a dependency conflict here
// answers 400, not 409.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	var req dto.DeleteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	deleted, err := h.service.DeleteUser(c.UserContext(), req.ID)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: vErr.Message,
			})
		case errors.Is(err, services.ErrUserHasNotes):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "User has assigned notes. Cant delete",
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		default:
			return err
		}
	}

	return c.JSON(dto.MessageResponse{
		Message: fmt.Sprintf("Username %s with ID %s deleted", deleted.Username, deleted.ID),
	})
}
