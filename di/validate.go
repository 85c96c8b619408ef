package di

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var structValidate = validator.New(validator.WithRequiredStructEnabled())

// StructValidator validates options using `validate` struct tags.
type StructValidator[T any] struct{}

// Validate implements [Validator].
func (StructValidator[T]) Validate(_ string, v *T) error {
	return structValidate.Struct(v)
}

// ValidateStruct registers tag based validation for T. Registering it twice has
// no effect.
func ValidateStruct[T any](c *Collection) *Collection {
	if len(c.Find(func(d *Descriptor) bool {
		_, ok := d.Instance.(StructValidator[T])
		return ok
	})) > 0 {
		return c
	}

	return AddValidator[T](c, StructValidator[T]{})
}

func validationFailures(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	failures := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		failures = append(failures, fe.Error())
	}

	return failures
}
