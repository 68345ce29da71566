package user

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

// Messages attached to storage failures, one per operation.
const (
	MsgCreateFailed = "Error creating user"
	MsgListFailed   = "Error fetching users"
	MsgGetFailed    = "Error fetching user"
	MsgUpdateFailed = "Error updating user"
	MsgDeleteFailed = "Error deleting user"
	MsgNotFound     = "User not found"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer so the document store and the SQL stores
// can be used interchangeably.
type Repository interface {
	Create(ctx context.Context, in domain.Input) (*domain.User, error)            // Create stores a new user and assigns its id
	List(ctx context.Context) ([]domain.User, error)                              // List returns every stored user
	GetByID(ctx context.Context, id string) (*domain.User, error)                 // GetByID returns domain.ErrNotFound when absent
	Update(ctx context.Context, id string, in domain.Input) (*domain.User, error) // Update replaces name and email
	Delete(ctx context.Context, id string) error                                  // Delete returns domain.ErrNotFound when absent
	Ping(ctx context.Context) error                                               // Ping checks store connectivity
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo         Repository    // Repository for data access
	log          *zap.Logger   // Logger for structured logging
	storeTimeout time.Duration // Upper bound for each repository call; zero means none
}

// Option configures a Usecase.
type Option func(*Usecase)

// WithStoreTimeout bounds every repository call made by the usecase.
func WithStoreTimeout(d time.Duration) Option {
	return func(uc *Usecase) {
		uc.storeTimeout = d
	}
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger, opts ...Option) *Usecase {
	uc := &Usecase{repo: r, log: log}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *Usecase) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, uc.storeTimeout)
}

// storeError converts a repository error into the application error taxonomy.
func storeError(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperrors.NewNotFoundError("user", MsgNotFound)
	}
	return apperrors.NewInternalError(msg, err)
}

// CreateUser validates the payload and stores a new user.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	valid, err := domain.Validate(in.Payload)
	if err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	log.Info("creating user", zap.String("name", valid.Name), zap.String("email", valid.Email))

	sctx, cancel := uc.storeContext(ctx)
	defer cancel()

	u, err := uc.repo.Create(sctx, valid)
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, storeError(err, MsgCreateFailed)
	}
	return toDTO(u), nil
}

// ListUsers returns every stored user. The result is never nil.
func (uc *Usecase) ListUsers(ctx context.Context, _ ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	sctx, cancel := uc.storeContext(ctx)
	defer cancel()

	domainUsers, err := uc.repo.List(sctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, storeError(err, MsgListFailed)
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}

	log.Debug("listed users", zap.Int("count", len(users)))
	return &ListUsersResponse{Users: users}, nil
}

// GetUser retrieves a user by id.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	sctx, cancel := uc.storeContext(ctx)
	defer cancel()

	u, err := uc.repo.GetByID(sctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("user not found", zap.String("id", in.ID))
		} else {
			log.Error("failed to get user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, storeError(err, MsgGetFailed)
	}
	return toDTO(u), nil
}

// UpdateUser validates the payload and replaces name and email on an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	valid, err := domain.Validate(in.Payload)
	if err != nil {
		log.Warn("validate failed", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	log.Info("updating user", zap.String("id", in.ID), zap.String("name", valid.Name), zap.String("email", valid.Email))

	sctx, cancel := uc.storeContext(ctx)
	defer cancel()

	u, err := uc.repo.Update(sctx, in.ID, valid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("user not found", zap.String("id", in.ID))
		} else {
			log.Error("failed to update user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, storeError(err, MsgUpdateFailed)
	}
	return toDTO(u), nil
}

// DeleteUser removes a user by id.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.String("id", in.ID))

	sctx, cancel := uc.storeContext(ctx)
	defer cancel()

	if err := uc.repo.Delete(sctx, in.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("user not found", zap.String("id", in.ID))
		} else {
			log.Error("failed to delete user", zap.String("id", in.ID), zap.Error(err))
		}
		return nil, storeError(err, MsgDeleteFailed)
	}
	return &DeleteUserResponse{ID: in.ID}, nil
}
