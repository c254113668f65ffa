package payroll

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// validateStruct runs tag validation and folds failures into ErrInvalidInput.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.Wrapf(ErrInvalidInput, "%v", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return shared.Wrapf(ErrInvalidInput, "%s", strings.Join(parts, "; "))
}

// Validate checks the settings ranges and the social contribution bounds.
func (s TaxSettings) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if s.SocialContribMaxMZP.LessThan(s.SocialContribMinMZP) {
		return shared.Wrapf(ErrInvalidInput, "social contribution max %s below min %s", s.SocialContribMaxMZP, s.SocialContribMinMZP)
	}
	return nil
}
