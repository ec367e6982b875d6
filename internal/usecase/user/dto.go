package user

// CreateUserRequest represents the request payload for creating a new user.
// Fields are pointers so that an absent or null value is distinguishable
// from an empty string.
type CreateUserRequest struct {
	Name  *string `validate:"required,filterable"`
	Email *string `validate:"required,email,filterable"`
}

// UpdateUserRequest represents the request payload for replacing a user's fields.
type UpdateUserRequest struct {
	ID    string
	Name  *string `validate:"required,filterable"`
	Email *string `validate:"required,email,filterable"`
}

// Empty reports whether the request carries no replacement fields at all.
func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// ListUsersRequest represents the request payload for listing users.
// Non-empty fields filter by exact match.
type ListUsersRequest struct {
	Name  string
	Email string
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID    string
	Name  string
	Email string
}
