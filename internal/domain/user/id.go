package user

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned when an identifier is not a well-formed ObjectId.
var ErrInvalidID = errors.New("id must be a 24 character hex string")

// ValidateID checks the syntax of a user identifier without touching storage.
func ValidateID(id string) error {
	_, err := ParseID(id)
	return err
}

// ParseID validates id and returns its canonical lowercase form.
func ParseID(id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return oid.Hex(), nil
}

// NewID generates a fresh identifier for backends that do not assign one.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
