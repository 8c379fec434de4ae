package utils

import (
	uuid "github.com/satori/go.uuid"
)

// UUID returns a random (version 4) UUID in canonical form.
func UUID() string {
	return uuid.NewV4().String()
}

// IsValidUUID reports whether id parses as a UUID. Both canonical and
// braced or URN forms are accepted.
func IsValidUUID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.FromString(id)
	return err == nil
}
