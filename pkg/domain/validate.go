package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func propertyValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
			return ParsePrice(fl.Field().String()) > 0
		})
		validate = v
	})
	return validate
}

// Validate checks a submission against its struct tags. The returned error
// wraps ErrInvalidProperty and names every failing field.
func (p SubmittedProperty) Validate() error {
	err := propertyValidator().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidProperty, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidProperty, strings.Join(fields, ", "))
}
