package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"edis-portal/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("letters", validateLetters); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("past", validatePast); err != nil {
		panic(err)
	}
	return v
}

// validateLetters accepts letters, spaces, hyphens, apostrophes and periods.
func validateLetters(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '\'', '.':
			continue
		}
		return false
	}
	return true
}

// validatePast requires a YYYY-MM-DD date strictly before today.
func validatePast(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return false
	}
	y, m, day := time.Now().Date()
	return d.Before(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
}

// validateStruct runs the struct's validate tags and collects every failing
// field into a ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		fields[e.Field()] = fieldMessage(e)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", e.Field())
	case "letters":
		return fmt.Sprintf("%s must contain only letters", e.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", e.Field())
	case "past":
		return fmt.Sprintf("%s must be in the past", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
