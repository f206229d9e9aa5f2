package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"streamhub/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// FieldErrors maps a request field to the rule it broke. It unwraps to
// domain.ErrValidation.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f, tag := range e {
		fields = append(fields, f+"="+tag)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: %s", domain.ErrValidation, strings.Join(fields, ", "))
}

func (e FieldErrors) Unwrap() error { return domain.ErrValidation }

// Fields exposes the per-field details for the response envelope.
func (e FieldErrors) Fields() map[string]string { return e }

// Validate struct fields
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	errs := make(FieldErrors, len(verrs))
	for _, err := range verrs {
		errs[err.Field()] = err.Tag()
	}
	return errs
}
