package helpers

import "strings"

// NullableString trims s and returns nil for nil or blank input, so optional
// text columns are stored as NULL rather than ''.
func NullableString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
