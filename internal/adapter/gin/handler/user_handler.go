package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"user-service/internal/usecase/user"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

// Response messages that are not produced by the usecase.
const (
	MsgValidation     = "Validation error"
	MsgInvalidBody    = "Invalid JSON body"
	MsgDeleted        = "User deleted successfully"
	MsgInternalServer = "Internal Server Error"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageResponse is the body of delete confirmations and not-found answers.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error,omitempty"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

var errTrailingData = errors.New("unexpected data after the JSON body")

// invalidBodyError reports a request body that is not valid JSON.
type invalidBodyError struct {
	err error
}

func (e *invalidBodyError) Error() string { return e.err.Error() }
func (e *invalidBodyError) Unwrap() error { return e.err }

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// result is what every handler hands back to handle.
type result struct {
	status int
	body   any
}

// handle runs fn and maps its outcome to a response. All five routes go through it.
func (h *UserHandler) handle(c *gin.Context, op string, fn func(ctx context.Context) (result, error)) {
	res, err := fn(c.Request.Context())
	if err != nil {
		h.writeError(c, op, err)
		return
	}
	c.JSON(res.status, res.body)
}

func (h *UserHandler) writeError(c *gin.Context, op string, err error) {
	log := logger.WithContext(c.Request.Context(), h.log).With(zap.String("op", op))

	var (
		verr    *apperrors.ValidationError
		nfErr   *apperrors.NotFoundError
		intErr  *apperrors.InternalError
		bodyErr *invalidBodyError
	)

	switch {
	case errors.As(err, &bodyErr):
		log.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: MsgInvalidBody, Error: bodyErr.Error()})
	case errors.As(err, &verr):
		c.JSON(apperrors.StatusOf(err), ErrorResponse{Message: MsgValidation, Errors: verr.Fields})
	case errors.As(err, &nfErr):
		c.JSON(apperrors.StatusOf(err), MessageResponse{Message: nfErr.Error()})
	case errors.As(err, &intErr):
		resp := ErrorResponse{Message: intErr.Message}
		if intErr.Err != nil {
			resp.Error = intErr.Err.Error()
		}
		c.JSON(intErr.HTTPStatus(), resp)
	default:
		log.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: MsgInternalServer, Error: err.Error()})
	}
}

// readPayload decodes the request body into an untyped JSON value.
// An empty body yields nil so that validation reports every missing field.
func readPayload(c *gin.Context) (any, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, &invalidBodyError{err: err}
	}
	if len(body) == 0 {
		return nil, nil
	}

	var payload any
	if err := binding.JSON.BindBody(body, &payload); err != nil {
		return nil, &invalidBodyError{err: err}
	}
	// BindBody stops after the first value.
	if !json.Valid(body) {
		return nil, &invalidBodyError{err: errTrailingData}
	}
	return payload, nil
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	h.handle(c, "create", func(ctx context.Context) (result, error) {
		payload, err := readPayload(c)
		if err != nil {
			return result{}, err
		}

		u, err := h.uc.CreateUser(ctx, user.CreateUserRequest{Payload: payload})
		if err != nil {
			return result{}, err
		}
		return result{status: http.StatusCreated, body: toResponse(u)}, nil
	})
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.handle(c, "list", func(ctx context.Context) (result, error) {
		resp, err := h.uc.ListUsers(ctx, user.ListUsersRequest{})
		if err != nil {
			return result{}, err
		}

		users := make([]UserResponse, len(resp.Users))
		for i := range resp.Users {
			users[i] = toResponse(&resp.Users[i])
		}
		return result{status: http.StatusOK, body: users}, nil
	})
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	h.handle(c, "get", func(ctx context.Context) (result, error) {
		u, err := h.uc.GetUser(ctx, user.GetUserRequest{ID: c.Param("id")})
		if err != nil {
			return result{}, err
		}
		return result{status: http.StatusOK, body: toResponse(u)}, nil
	})
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	h.handle(c, "update", func(ctx context.Context) (result, error) {
		payload, err := readPayload(c)
		if err != nil {
			return result{}, err
		}

		u, err := h.uc.UpdateUser(ctx, user.UpdateUserRequest{ID: c.Param("id"), Payload: payload})
		if err != nil {
			return result{}, err
		}
		return result{status: http.StatusOK, body: toResponse(u)}, nil
	})
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	h.handle(c, "delete", func(ctx context.Context) (result, error) {
		if _, err := h.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: c.Param("id")}); err != nil {
			return result{}, err
		}
		return result{status: http.StatusOK, body: MessageResponse{Message: MsgDeleted}}, nil
	})
}
