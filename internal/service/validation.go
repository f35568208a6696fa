package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/movie-catalog/internal/domain"
)

var validate = validator.New()

// validateInput runs the struct validation tags and converts failures into a
// ValidationError listing every offending field
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return domain.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := lowerFirst(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email address")
		case "max":
			messages = append(messages, field+" must be at most "+e.Param()+" characters")
		case "oneof":
			messages = append(messages, field+" must be one of: "+e.Param())
		case "gte":
			messages = append(messages, field+" must be at least "+e.Param())
		default:
			messages = append(messages, field+" failed validation on "+e.Tag())
		}
	}
	sort.Strings(messages)

	return domain.NewValidationError(strings.Join(messages, "; "))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
