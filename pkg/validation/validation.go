package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"smallbiznis-backoffice/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

// Result is the outcome of a schema: a normalized Value, or field errors.
type Result[T any] struct {
	Value  T
	Errors []errutil.Detail
}

func (r Result[T]) OK() bool {
	return len(r.Errors) == 0
}

func Fail[T any](details ...errutil.Detail) Result[T] {
	return Result[T]{Errors: details}
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator configured with json field names and
// the custom tags used by the schemas.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("snowflake", func(fl validator.FieldLevel) bool {
			_, err := snowflake.ParseString(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Struct validates v and converts every failure into a field-level detail.
func Struct(v any) []errutil.Detail {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []errutil.Detail{{Field: "_", Message: err.Error()}}
	}

	details := make([]errutil.Detail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, errutil.Detail{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return details
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "snowflake":
		return "Must be a valid identifier"
	case "uuid":
		return "Must be a valid token"
	case "date":
		return "Must be a date in YYYY-MM-DD format"
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "unique":
		return "Must not contain duplicates"
	case "excluded_with":
		return "Only one target may be set"
	default:
		return fmt.Sprintf("Failed on %s", fe.Tag())
	}
}

// ParseDate parses a validated YYYY-MM-DD value as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
}

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
