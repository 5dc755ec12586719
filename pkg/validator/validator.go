package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var entityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// New returns a validator with the project's custom tags registered.
//
//	entityid  ids of users, products and conversations
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("entityid", func(fl validator.FieldLevel) bool {
		return IsEntityID(fl.Field().String())
	})
	return v
}

func IsEntityID(id string) bool {
	return entityIDPattern.MatchString(id)
}

// Message renders the first failing field as a short sentence.
func Message(validationErr validator.ValidationErrors) string {
	for _, err := range validationErr {
		field := strings.ToLower(err.Field())
		param := err.Param()

		switch err.Tag() {
		case "required":
			return field + " is required"
		case "min":
			return field + " must be at least " + param
		case "max":
			return field + " must be at most " + param
		case "oneof":
			return field + " must be one of: " + param
		case "entityid":
			return field + " is not a valid id"
		case "nefield":
			return field + " must differ from " + strings.ToLower(param)
		default:
			return field + " is invalid"
		}
	}
	return "Invalid input data"
}
