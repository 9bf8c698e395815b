package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/notes-api/internal/apperror"
)

// validate checks the `validate:"..."` tags on request DTOs.
// A *validator.Validate caches struct metadata, so one instance is shared.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report the JSON name ("photo_id") rather than the Go name ("PhotoID").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// maxJSONBody caps request bodies. The largest legal body (a registration)
// is far below this.
const maxJSONBody = 1 << 20

// decodeJSON reads the body into dst and runs the validator on it.
// Every failure comes back as an apperror validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
		}
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		// Elements checked through "dive" are named "tags[1]"; report the list.
		field, _, _ := strings.Cut(fe.Field(), "[")
		return apperror.ValidationFailed(field, describe(fe))
	}
	return fmt.Errorf("validating request: %w", err)
}

// describe renders one validator failure as a short sentence.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

// pathID reads the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

// pageParams reads ?limit= and ?offset=. Absent means 0; the repository
// applies the defaults and caps.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

// optionalBool reads a boolean query parameter. Absent gives nil.
func optionalBool(r *http.Request, name string) (*bool, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return nil, nil
	}
	v, err := strconv.ParseBool(q.Get(name))
	if err != nil {
		return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be true or false", name))
	}
	return &v, nil
}

// optionalString reads a query parameter. Absent gives nil; present but
// empty gives a pointer to "".
func optionalString(r *http.Request, name string) *string {
	q := r.URL.Query()
	if !q.Has(name) {
		return nil
	}
	v := q.Get(name)
	return &v
}

// tagIDsParam reads ?tags= in both forms: tags=1&tags=2 and tags=1,2.
// Absent gives nil.
func tagIDsParam(r *http.Request) ([]int64, error) {
	values, ok := r.URL.Query()["tags"]
	if !ok {
		return nil, nil
	}
	ids := []int64{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, apperror.ValidationFailed("tags", fmt.Sprintf("invalid tag id %q", part))
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
