package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RosterDelimiter joins participant names into a display string.
const RosterDelimiter = ", "

// MaxParticipantNameLength is measured in runes.
const MaxParticipantNameLength = 100

// JoinRoster renders names in order, separated by RosterDelimiter.
func JoinRoster(names []string) string {
	return strings.Join(names, RosterDelimiter)
}

// SplitRoster is the inverse of JoinRoster. Blank segments are dropped.
func SplitRoster(joined string) []string {
	parts := strings.Split(joined, strings.TrimSpace(RosterDelimiter))

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}

	return names
}

// NormalizeParticipantName trims name and rejects empty or oversized names.
func NormalizeParticipantName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidParticipantName)
	}

	if utf8.RuneCountInString(name) > MaxParticipantNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidParticipantName, MaxParticipantNameLength)
	}

	return name, nil
}
