// Package services holds the business rules of CRMS. Services depend on
// repository interfaces and return apperrors sentinels, which the HTTP layer
// maps to status codes.
package services

import (
	"fmt"
	"strings"

	"github.com/yigit/crms/internal/pkg/apperrors"
)

// requireID rejects non-positive identifiers before any query runs
func requireID(name string, id int64) error {
	if id <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be a positive integer", name))
	}
	return nil
}

// requireText rejects blank values after trimming
func requireText(name, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperrors.NewValidationError(fmt.Sprintf("%s cannot be empty", name))
	}
	return v, nil
}
