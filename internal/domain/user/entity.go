package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID        string    // ID is the opaque identifier assigned by the store
	Name      string    // Name is the full name of the user
	Email     string    // Email is the email address of the user
	CreatedAt time.Time // CreatedAt is set once when the user is stored
	UpdatedAt time.Time // UpdatedAt changes on every replace
}

// Input holds the writable fields of a user after validation.
type Input struct {
	Name  string `json:"name" validate:"required,min=1"`
	Email string `json:"email" validate:"required,email"`
}
