// internal/utils/validator.go
package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/highdeium-backend/internal/models"
)

var validate *validator.Validate

// Up to six integer digits and two decimals, matching decimal(8,2).
var pricePattern = regexp.MustCompile(`^\d{1,6}(\.\d{1,2})?$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("genre", validateGenre)
	validate.RegisterValidation("price", validatePrice)
	validate.RegisterValidation("media_type", validateMediaType)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateGenre(fl validator.FieldLevel) bool {
	return models.Genre(fl.Field().String()).Valid()
}

func validatePrice(fl validator.FieldLevel) bool {
	return pricePattern.MatchString(fl.Field().String())
}

func validateMediaType(fl validator.FieldLevel) bool {
	return models.MediaType(fl.Field().String()).Valid()
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "url":
		return e.Field() + " must be a valid URL"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "genre":
		return e.Field() + " must be one of the supported genres"
	case "price":
		return e.Field() + " must be a decimal with up to 2 places, e.g. 4.99"
	case "media_type":
		return e.Field() + " must be image, video or audio"
	default:
		return e.Field() + " is invalid"
	}
}
