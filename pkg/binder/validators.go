package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	dateRE  = regexp.MustCompile(`^\d{4}-(0[0-9]|1[0-2])-(0[0-9]|1[0-9]|2[0-9]|3[0-1])$`)
	colorRE = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// dateValidator ensures the value matches the format YYYY-MM-DD or the empty
// string. Add `ne=` to the validate tag when the empty string should be
// rejected.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dateRE.MatchString(value)
}

// colorValidator accepts a #RRGGBB hex color. Nil pointers and empty strings
// pass so the field stays optional.
func colorValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return colorRE.MatchString(value)
}
