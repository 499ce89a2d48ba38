package core

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
)

// Validator checks a route's bound arguments as a whole.
type Validator interface {
	Validate(a *Args) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(a *Args) error

func (f ValidatorFunc) Validate(a *Args) error { return f(a) }

var validate = validator.New()

// Rules maps parameter names to validator tags, e.g. {"threshold": "gt=0"}.
// Parameters are checked in declared order and absent ones are skipped.
type Rules map[string]string

func (r Rules) Validate(a *Args) error {
	for _, name := range a.Names() {
		tag, ok := r[name]
		if !ok || !a.Has(name) {
			continue
		}
		if err := validate.Var(a.Value(name), tag); err != nil {
			return apperr.Validation(name, reason(err))
		}
	}
	return nil
}

func reason(err error) string {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		if fe.Param() != "" {
			return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("must satisfy %s", fe.Tag())
	}
	return err.Error()
}
