package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	AnonymousName      = "Anonymous"
	MaxDisplayNameRune = 64
)

type Participant struct {
	ConnectionID string
	DisplayName  string
	JoinedAt     time.Time
}

// NormalizeDisplayName trims the name, falls back to AnonymousName and caps its length.
func NormalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return AnonymousName
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameRune {
		name = string([]rune(name)[:MaxDisplayNameRune])
	}
	return name
}
