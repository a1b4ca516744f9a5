package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh 24 hex character object id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether s is a well formed 24 hex character object id.
func IsValidID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
