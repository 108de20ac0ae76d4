// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/lineup/internal/models"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError represents a single field validation error with structured information.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the JSON field path that failed validation (e.g. "lineup[2].time").
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the parameter for the validation tag (e.g., "100" for "lte=100").
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the actual value that failed validation.
func (e *ValidationError) Value() interface{} {
	return e.value
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	return e.message
}

// SchemaError is the collection of field errors for one validated value.
// errors.Is(err, models.ErrValidation) holds for every SchemaError.
type SchemaError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (se *SchemaError) Errors() []ValidationError {
	return se.errors
}

// Error implements the error interface, returning a combined error message.
func (se *SchemaError) Error() string {
	if len(se.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(se.errors))
	for _, err := range se.errors {
		messages = append(messages, err.Error())
	}

	return strings.Join(messages, "; ")
}

// Is lets callers match any schema failure against models.ErrValidation.
func (se *SchemaError) Is(target error) bool {
	return target == models.ErrValidation
}

// GetValidator returns the singleton validator instance.
// The validator is initialized once with custom validators and options.
// This function is thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so messages match the documents being validated.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		mustRegister(validate, "festdate", validateFestDate)
		mustRegister(validate, "festtime", validateFestTime)
		validate.RegisterStructValidation(validateFestivalDates, models.Festival{})
	})

	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// validateFestDate accepts YYYY-MM-DD calendar dates.
func validateFestDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

// validateFestTime accepts HH:MM on a 24h clock.
func validateFestTime(fl validator.FieldLevel) bool {
	_, ok := models.ParseTime(fl.Field().String())
	return ok
}

// validateFestivalDates requires end_date on or after start_date. Malformed
// dates are already reported by festdate.
func validateFestivalDates(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(models.Festival)
	if !ok {
		return
	}
	start, err1 := time.Parse(models.DateLayout, f.StartDate)
	end, err2 := time.Parse(models.DateLayout, f.EndDate)
	if err1 != nil || err2 != nil {
		return
	}
	if end.Before(start) {
		sl.ReportError(f.EndDate, "end_date", "EndDate", "afterstart", "start_date")
	}
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *SchemaError if validation fails.
func ValidateStruct(s interface{}) *SchemaError {
	v := GetValidator()

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &SchemaError{
			errors: []ValidationError{
				{
					field:   "unknown",
					tag:     "unknown",
					message: err.Error(),
				},
			},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldPath(fieldErr),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &SchemaError{errors: fieldErrors}
}

// Festival validates a festival record and its lineup against the canonical
// schema. It returns a plain error so a nil result compares equal to nil.
func Festival(f *models.Festival) error {
	if f == nil {
		return &SchemaError{errors: []ValidationError{{field: "festival", tag: "required", message: "festival is required"}}}
	}
	if err := ValidateStruct(f); err != nil {
		return err
	}
	return nil
}

// Preferences validates recommendation preferences.
func Preferences(p *models.Preferences) error {
	if p == nil {
		return nil
	}
	if err := ValidateStruct(p); err != nil {
		return err
	}
	return nil
}

// fieldPath strips the root struct name from the namespace so nested errors
// read "lineup[0].artist_name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"url":      "%s must be a valid URL",
	"festdate": "%s must be a date in YYYY-MM-DD format",
	"festtime": "%s must be a 24h time in HH:MM format",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof":      "%s must be one of: %s",
	"gte":        "%s must be greater than or equal to %s",
	"lte":        "%s must be less than or equal to %s",
	"afterstart": "%s must not be before %s",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field := fieldPath(fe)
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}

	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max validation with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind().String() == "string"

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
