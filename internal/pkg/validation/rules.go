package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Email validation pattern
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// Course codes: a department prefix, optional space, a number and an optional suffix (IT101, CS 21A)
	CourseCodePattern = `^[A-Z]{2,6} ?[0-9]{1,4}[A-Z]?$`

	// Student numbers: letters, digits and dashes (2025-00012)
	StudentNumberPattern = `^[A-Za-z0-9][A-Za-z0-9\-]{2,29}$`
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email         *regexp.Regexp
	CourseCode    *regexp.Regexp
	StudentNumber *regexp.Regexp
}{
	Email:         regexp.MustCompile(EmailPattern),
	CourseCode:    regexp.MustCompile(CourseCodePattern),
	StudentNumber: regexp.MustCompile(StudentNumberPattern),
}

// String validation
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Required && v.Value == "" {
		return false
	}

	// Skip other validations for empty optional values
	if !v.Required && v.Value == "" {
		return true
	}

	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}

	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}

	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}

	return true
}

// NormalizeCourseCode upper-cases and trims a course code
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCourseCode reports whether code is a well-formed course code after normalisation
func IsCourseCode(code string) bool {
	return NewStringValidation(NormalizeCourseCode(code)).WithPattern(CompiledPatterns.CourseCode).Validate()
}

// IsStudentNumber reports whether s is a well-formed student number
func IsStudentNumber(s string) bool {
	return NewStringValidation(strings.TrimSpace(s)).WithPattern(CompiledPatterns.StudentNumber).Validate()
}

// IsEmail reports whether s is a well-formed (lower-cased) email address
func IsEmail(s string) bool {
	return NewStringValidation(strings.ToLower(strings.TrimSpace(s))).
		WithMaxLength(254).
		WithPattern(CompiledPatterns.Email).
		Validate()
}

// RegisterGinValidators installs the coursecode and studentnumber tags on
// gin's validator so request DTOs can use them in binding tags.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("coursecode", func(fl validator.FieldLevel) bool {
		return IsCourseCode(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("studentnumber", func(fl validator.FieldLevel) bool {
		return IsStudentNumber(fl.Field().String())
	})
}
