package utils

import (
	"strings"

	"github.com/google/uuid"
)

const CodeLength = 10

// NewCode returns a short random identifier for a new entity.
func NewCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:CodeLength]
}
