package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the main validator instance
	Validate *validator.Validate

	nodeIDPattern     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	portNamePattern   = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]*$`)
	typeTagPattern    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)*$`)
	filterKindPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

func init() {
	Validate = validator.New()

	// Register custom validation functions
	mustRegister("node_id", validateNodeID)
	mustRegister("port_name", validatePortName)
	mustRegister("port_ref", validatePortRef)
	mustRegister("type_tag", validateTypeTag)
	mustRegister("filter_kind", validateFilterKind)

	// Register tag name function to use JSON tags for field names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := Validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// ValidateWithPlayground validates using go-playground/validator
func ValidateWithPlayground(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors converts validator errors to our custom format
func formatValidationErrors(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fieldError.Field(),
			Value:   fieldError.Value(),
			Message: getErrorMessage(fieldError),
		})
	}
	return out
}

// getErrorMessage returns a human-readable error message
func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "ltefield":
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "hostname_port":
		return "must be a host:port address"
	case "node_id":
		return "must be a valid node identifier (alphanumeric, underscore, hyphen)"
	case "port_name":
		return "must be a valid port name"
	case "port_ref":
		return "must be a port reference of the form component.port"
	case "type_tag":
		return "must be a dotted type tag such as number or number.integer"
	case "filter_kind":
		return "must be a valid filter kind"
	default:
		return fmt.Sprintf("validation failed: %s", fe.Tag())
	}
}

// IsNodeID reports whether s is usable as a node identifier.
func IsNodeID(s string) bool {
	return len(s) <= 100 && nodeIDPattern.MatchString(s)
}

// IsTypeTag reports whether s is a well-formed port type tag.
func IsTypeTag(s string) bool {
	return typeTagPattern.MatchString(s)
}

func validateNodeID(fl validator.FieldLevel) bool {
	return IsNodeID(fl.Field().String())
}

func validatePortName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return len(name) <= 100 && portNamePattern.MatchString(name)
}

// validatePortRef accepts "component.port"; the component part follows the
// node_id rule so the first dot always separates the two halves.
func validatePortRef(fl validator.FieldLevel) bool {
	component, port, ok := strings.Cut(fl.Field().String(), ".")
	if !ok {
		return false
	}
	return IsNodeID(component) && portNamePattern.MatchString(port)
}

func validateTypeTag(fl validator.FieldLevel) bool {
	return IsTypeTag(fl.Field().String())
}

func validateFilterKind(fl validator.FieldLevel) bool {
	return filterKindPattern.MatchString(fl.Field().String())
}
