package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StructValidator is a singleton instance of the validator.
var StructValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON/form name rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// ErrorResponse represents a validation error message.
type ErrorResponse struct {
	FailedField string `json:"failed_field"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
	Message     string `json:"message"`
}

// ValidateStruct performs validation on a struct.
// It returns a slice of ErrorResponse if validation fails, or nil otherwise.
func ValidateStruct(payload interface{}) []*ErrorResponse {
	err := StructValidator.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []*ErrorResponse{{Message: err.Error()}}
	}
	out := make([]*ErrorResponse, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		value := fmt.Sprintf("%v", fe.Value())
		if strings.Contains(strings.ToLower(fe.Field()), "password") {
			value = "***"
		}
		out = append(out, &ErrorResponse{
			FailedField: fe.Field(),
			Tag:         fe.Tag(),
			Value:       value,
			Message:     generateValidationMessage(fe),
		})
	}
	return out
}

// generateValidationMessage creates a user-friendly message for a validation error.
func generateValidationMessage(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()
	param := err.Param()
	kind := err.Kind()

	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		switch kind {
		case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("The %s field must have at least %s items/characters.", field, param)
		default:
			return fmt.Sprintf("The %s field must be at least %s.", field, param)
		}
	case "max":
		switch kind {
		case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("The %s field must have at most %s items/characters.", field, param)
		default:
			return fmt.Sprintf("The %s field must be at most %s.", field, param)
		}
	case "alphanum":
		return fmt.Sprintf("The %s field may only contain alpha-numeric characters.", field)
	case "datetime":
		return fmt.Sprintf("The %s field must be a date formatted as %s.", field, param)
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s.", field, param)
	default:
		return fmt.Sprintf("The %s field is not valid (tag: %s).", field, tag)
	}
}

// ParseAndValidate is a utility function for Fiber handlers to parse the body and validate it.
// It returns true if parsing and validation are successful, false otherwise.
// If false, it sends the appropriate error response.
func ParseAndValidate(c *fiber.Ctx, payload interface{}) bool {
	if err := c.BodyParser(payload); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
		return false
	}
	return Validate(c, payload)
}

// Validate runs ValidateStruct and writes a 400 response on failure.
func Validate(c *fiber.Ctx, payload interface{}) bool {
	validationErrors := ValidateStruct(payload)
	if validationErrors == nil {
		return true
	}
	messages := make([]string, len(validationErrors))
	for i, ve := range validationErrors {
		messages[i] = ve.Message
	}
	_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message":  messages[0],
		"details":  validationErrors,
		"messages": messages,
	})
	return false
}
