package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// StringIsEmpty reports whether s is empty once trimmed.
func StringIsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsEmail performs a shape check on an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}
