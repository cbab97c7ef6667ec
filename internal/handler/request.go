package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/taskapi/internal/apperror"
)

// maxBodyBytes caps request bodies. Every accepted body is a handful of
// short strings.
const maxBodyBytes = 1 << 20

// validate is shared by all handlers; *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names ("user_id") instead of Go names ("UserID").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON checks that r carries a JSON body, decodes it into dst and
// runs the struct's validate tags. what names the endpoint in the
// content-type error ("user add").
//
// CONTENT TYPE:
// mime.ParseMediaType accepts parameters, so
// "application/json; charset=utf-8" passes while "text/plain" or a missing
// header is rejected with 415.
func decodeJSON(r *http.Request, dst any, what string) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return apperror.UnsupportedMedia(
			fmt.Sprintf("%s requires a JSON body (Content-Type: application/json)", what))
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperror.ValidationFailed("", "request body is empty")
	case errors.As(err, &typeErr):
		return apperror.ValidationFailed(typeErr.Field,
			fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()))
	default:
		return apperror.ValidationFailed("", "invalid JSON body: "+err.Error())
	}
}

// validationError reports the first failed rule as an apperror naming the
// offending field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "email":
		msg = field + " must be a valid email address"
	case "min":
		msg = field + " must not be empty"
	case "max":
		msg = fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
	case "gt":
		msg = field + " must be a positive integer"
	default:
		msg = field + " is invalid"
	}
	return apperror.ValidationFailed(field, msg)
}

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("id", fmt.Sprintf("id must be an integer, got %q", raw))
	}
	return id, nil
}
