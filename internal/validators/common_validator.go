package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("uid", validateUID)
	validate.RegisterValidation("field_name", validateFieldName)
}

var (
	ErrInvalidUID       = errors.New("invalid uid")
	ErrInvalidFieldName = errors.New("invalid field name")
)

const maxUIDLength = 128

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
		}
		for _, err := range fieldErrors {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "uid":
		return "Invalid uid"
	case "field_name":
		return "Invalid field name"
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

func validateUID(fl validator.FieldLevel) bool {
	return IsValidUID(fl.Field().String())
}

func validateFieldName(fl validator.FieldLevel) bool {
	return IsValidFieldName(fl.Field().String())
}

// IsValidUID reports whether uid can be used as a document id.
func IsValidUID(uid string) bool {
	if uid == "" || len(uid) > maxUIDLength {
		return false
	}
	if uid == "." || uid == ".." || strings.Contains(uid, "/") {
		return false
	}
	if strings.HasPrefix(uid, "__") && strings.HasSuffix(uid, "__") {
		return false
	}
	return strings.TrimSpace(uid) == uid
}

// IsValidFieldName accepts top-level field names only; nested paths are not
// supported by the update endpoints.
func IsValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}
