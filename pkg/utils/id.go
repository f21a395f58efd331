package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier with the given prefix, e.g. "auction-<uuid>".
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.New().String()
	}
	return prefix + "-" + uuid.New().String()
}
