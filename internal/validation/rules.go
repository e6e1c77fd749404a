// Package validation provides custom validation rules for the application.
package validation

import (
	"maps"
	"regexp"
	"slices"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/writequeue/internal/errors"
)

var (
	// identifierRegex matches unquoted SQL identifiers accepted by PostgreSQL and MySQL.
	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// IsIdentifier reports whether s is a plain table or column name.
func IsIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}

// Identifier validates table and column names used in remote writes.
var Identifier = validation.NewStringRuleWithError(
	IsIdentifier,
	validation.NewError(
		"validation_identifier",
		"must start with a letter or underscore and contain only letters, digits and underscores",
	),
)

// InvalidColumn returns the first key of row, in sorted order, that is not a
// valid column name. It returns "" when every key is valid.
func InvalidColumn(row map[string]any) string {
	for _, key := range slices.Sorted(maps.Keys(row)) {
		if !IsIdentifier(key) {
			return key
		}
	}
	return ""
}
