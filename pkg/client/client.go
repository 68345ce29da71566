// Package client is a typed Go client for the user service HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "user-service/pkg/errors"
)

// User is a stored user record as returned by the API.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserInput is the body of create and update calls.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type errorBody struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Errors  []apperrors.FieldError `json:"errors"`
}

// Client calls the user service.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetry retries requests that fail at the transport level.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).SetRetryWaitTime(wait)
	}
}

// WithRequestID sends a fixed X-Request-ID header, which the server echoes into its logs.
func WithRequestID(id string) Option {
	return func(c *resty.Client) { c.SetHeader("X-Request-ID", id) }
}

// New creates a client for the service at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)

	for _, opt := range opts {
		opt(c)
	}
	return &Client{http: c}
}

// Create stores a new user.
func (c *Client) Create(ctx context.Context, in UserInput) (*User, error) {
	var out User
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/users")
	if err := check(resp, err, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every user.
func (c *Client) List(ctx context.Context) ([]User, error) {
	out := []User{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/users")
	if err := check(resp, err, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one user by id.
func (c *Client) Get(ctx context.Context, id string) (*User, error) {
	var out User
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/users/{id}")
	if err := check(resp, err, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces name and email of an existing user.
func (c *Client) Update(ctx context.Context, id string, in UserInput) (*User, error) {
	var out User
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(in).
		SetResult(&out).
		SetError(&errorBody{}).
		Put("/users/{id}")
	if err := check(resp, err, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a user by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetError(&errorBody{}).
		Delete("/users/{id}")
	return check(resp, err, http.StatusOK)
}

// check turns a transport failure or an unexpected status into an error from pkg/errors.
func check(resp *resty.Response, err error, want int) error {
	if err != nil {
		return fmt.Errorf("user service request: %w", err)
	}
	if resp.StatusCode() == want {
		return nil
	}

	body, _ := resp.Error().(*errorBody)
	if body == nil {
		body = &errorBody{Message: resp.String()}
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		if len(body.Errors) > 0 {
			return apperrors.NewValidationError(body.Errors...)
		}
		verr := apperrors.NewValidationError()
		verr.Add("body", body.Message)
		return verr
	case http.StatusNotFound:
		return apperrors.NewNotFoundError("user", body.Message)
	default:
		var cause error
		if body.Error != "" {
			cause = errors.New(body.Error)
		}
		return apperrors.NewInternalError(
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode(), body.Message), cause)
	}
}
