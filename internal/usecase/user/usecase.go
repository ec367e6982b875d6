package user

import (
	"context"

	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	apperrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., MongoDB, PostgreSQL) to be used interchangeably.
//
// GetByID, Update and Delete report a missing user with an error
// matching apperrors.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)      // Create a new user with a generated id
	GetByID(ctx context.Context, id string) (*domain.User, error)          // Retrieve user by ID
	Update(ctx context.Context, u *domain.User) (*domain.User, error)      // Replace name and email of an existing user
	Delete(ctx context.Context, id string) (*domain.User, error)           // Delete user by ID, returning the removed snapshot
	DeleteAll(ctx context.Context) (int64, error)                          // Delete every user
	List(ctx context.Context, filter domain.Filter) ([]domain.User, error) // List users in insertion order
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo   Repository      // Repository for data access
	log    *zap.Logger     // Logger for structured logging
	fields *FieldValidator // Validator for submitted fields
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, fields: NewFieldValidator()}
}

// CreateUser creates a new user after validating the submitted fields.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.fields.Validate(in); err != nil {
		log.Warn("create user validation failed", zap.Error(err))
		return nil, err
	}

	log.Info("creating user", zap.String("name", *in.Name), zap.String("email", *in.Email))

	u, err := uc.repo.Create(ctx, &domain.User{
		Name:  *in.Name,
		Email: *in.Email,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	return toDTO(u), nil
}

// GetUser retrieves a user by ID after validating the ID syntax.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := ValidateID(in.ID)
	if err != nil {
		log.Warn("get user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, uc.storageError(log, "get", id, err)
	}

	return toDTO(u), nil
}

// UpdateUser replaces the name and email of an existing user.
//
// A request with neither field set is resolved against storage first, so a
// missing user reports not found rather than a validation failure.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := ValidateID(in.ID)
	if err != nil {
		log.Warn("update user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	if in.Empty() {
		if _, err := uc.repo.GetByID(ctx, id); err != nil {
			return nil, uc.storageError(log, "update", id, err)
		}
	}

	if err := uc.fields.Validate(in); err != nil {
		log.Warn("update user validation failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	log.Info("updating user", zap.String("id", id), zap.String("name", *in.Name), zap.String("email", *in.Email))

	u, err := uc.repo.Update(ctx, &domain.User{
		ID:    id,
		Name:  *in.Name,
		Email: *in.Email,
	})
	if err != nil {
		return nil, uc.storageError(log, "update", id, err)
	}

	return toDTO(u), nil
}

// DeleteUser deletes a user and returns its last state.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	id, err := ValidateID(in.ID)
	if err != nil {
		log.Warn("delete user validation failed", zap.String("id", in.ID), zap.String("reason", "invalid id"))
		return nil, err
	}

	log.Info("deleting user", zap.String("id", id))

	u, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return nil, uc.storageError(log, "delete", id, err)
	}

	return toDTO(u), nil
}

// ListUsers retrieves every user matching the filter in insertion order.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) ([]User, error) {
	log := logger.WithContext(ctx, uc.log)

	log.Debug("listing users", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := validateFilter(in); err != nil {
		log.Warn("list users validation failed", zap.Error(err))
		return nil, err
	}

	domainUsers, err := uc.repo.List(ctx, domain.Filter{Name: in.Name, Email: in.Email})
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}

	return users, nil
}

// storageError passes not-found through and wraps everything else as internal.
func (uc *Usecase) storageError(log *zap.Logger, op, id string, err error) error {
	if apperrors.IsNotFound(err) {
		log.Info("user not found", zap.String("op", op), zap.String("id", id))
		return err
	}
	log.Error("failed to "+op+" user", zap.String("id", id), zap.Error(err))
	return apperrors.NewInternalError("failed to "+op+" user", err)
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
