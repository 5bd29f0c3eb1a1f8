package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/speed-article-api/internal/models"
)

var (
	doiRegex = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)
	letter   = regexp.MustCompile(`[A-Za-z]`)
	digit    = regexp.MustCompile(`\d`)
)

// MinPublicationYear is the earliest accepted yearOfPublication
const MinPublicationYear = 1900

// MinPasswordLength is the shortest accepted moderator password
const MinPasswordLength = 8

// Validator checks request DTOs and reports field-level errors
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator creates a validator with the custom article and account rules registered
func NewValidator() *Validator {
	v := &Validator{
		validate: validator.New(),
		now:      time.Now,
	}

	// Report JSON names rather than Go field names
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// An empty doi or link clears the stored value on update
	v.validate.RegisterValidation("doi", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValidDOI(s)
	})
	v.validate.RegisterValidation("link", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || v.validate.Var(s, "url") == nil
	})
	v.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	v.validate.RegisterValidation("pubyear", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= MinPublicationYear && year <= v.now().Year()+1
	})

	return v
}

// Struct validates s and returns one ValidationError per failing field
func (v *Validator) Struct(s interface{}) []models.ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []models.ValidationError{{Field: "body", Message: err.Error()}}
	}

	out := make([]models.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, models.ValidationError{
			Field:   fe.Field(),
			Message: v.message(fe),
			Value:   valueOf(fe),
		})
	}
	return out
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "invalid email format"
	case "doi":
		return "invalid DOI format, expected 10.<registrant>/<suffix>"
	case "password":
		return fmt.Sprintf("password must be at least %d characters long and contain both letters and numbers", MinPasswordLength)
	case "pubyear":
		return fmt.Sprintf("yearOfPublication must be between %d and %d", MinPublicationYear, v.now().Year()+1)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), "'", ""))
	case "url", "link":
		return "invalid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not be empty", fe.Field())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// valueOf omits secrets and empty values from error reports
func valueOf(fe validator.FieldError) interface{} {
	if fe.Field() == "password" || fe.Tag() == "required" {
		return nil
	}
	return fe.Value()
}

// IsValidDOI checks the 10.<registrant>/<suffix> shape
func IsValidDOI(s string) bool {
	return doiRegex.MatchString(s)
}

// IsStrongPassword requires MinPasswordLength characters with at least one letter and one digit
func IsStrongPassword(s string) bool {
	return len(s) >= MinPasswordLength && letter.MatchString(s) && digit.MatchString(s)
}
