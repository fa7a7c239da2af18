package registry

import (
	"github.com/cwrk-planet/coderoom/internal/security"
)

const (
	RoomIDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultIDLength = 6
)

// IDGenerator produces candidate room identifiers. Uniqueness is enforced by the registry.
type IDGenerator func() (string, error)

// RandomIDs returns a generator of length-symbol uppercase alphanumeric ids.
func RandomIDs(length int) IDGenerator {
	if length <= 0 {
		length = DefaultIDLength
	}
	return func() (string, error) {
		return security.RandomString(RoomIDAlphabet, length)
	}
}
