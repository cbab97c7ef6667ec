// Package service contains the business rules of the application.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, hashes credentials, orchestrates
//	Repository      → reads/writes the database
//
// Services accept plain Go values, return domain errors from
// internal/apperror and never see HTTP types.
package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sakif/taskapi/internal/apperror"
)

// MaxFieldLength bounds every stored text column.
const MaxFieldLength = 255

// requireText trims value and checks it is non-empty and within
// MaxFieldLength characters.
func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if utf8.RuneCountInString(value) > MaxFieldLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, MaxFieldLength))
	}
	return value, nil
}

func requireID(resource string, id int64) error {
	if id <= 0 {
		return apperror.ValidationFailed("id", resource+" id must be a positive integer")
	}
	return nil
}
