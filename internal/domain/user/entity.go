package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID        string    // ID is the storage-assigned identifier (ObjectId hex)
	Name      string    // Name is the full name of the user
	Email     string    // Email is the email address of the user
	CreatedAt time.Time // CreatedAt orders users by insertion
}

// Filter narrows a user listing. Empty fields match everything.
type Filter struct {
	Name  string
	Email string
}

// IsEmpty reports whether the filter matches every user.
func (f Filter) IsEmpty() bool {
	return f.Name == "" && f.Email == ""
}
