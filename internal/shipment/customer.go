package shipment

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
)

// DefaultPostalCodeLength is the digit count of an Indian PIN code.
const DefaultPostalCodeLength = 6

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Normalize trims surrounding whitespace from every field.
func (c CustomerDetails) Normalize() CustomerDetails {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address.Line = strings.TrimSpace(c.Address.Line)
	c.Address.Landmark = strings.TrimSpace(c.Address.Landmark)
	c.Address.City = strings.TrimSpace(c.Address.City)
	c.Address.State = strings.TrimSpace(c.Address.State)
	c.Address.PostalCode = strings.TrimSpace(c.Address.PostalCode)
	return c
}

// ValidateCustomer checks the fields a shipment group cannot exist without.
func ValidateCustomer(c CustomerDetails, postalLength int) error {
	if postalLength <= 0 {
		postalLength = DefaultPostalCodeLength
	}

	details := map[string]string{}
	if err := validate.Struct(c); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer details")
		}
		for _, fe := range errs {
			details[fieldPath(fe)] = validationMessage(fe)
		}
	}
	if _, failed := details["address.postal_code"]; !failed && !digits(c.Address.PostalCode, postalLength) {
		details["address.postal_code"] = fmt.Sprintf("must be exactly %d digits", postalLength)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer details").WithDetails(details)
	}
	return nil
}

// ValidatePostalCode checks that code is exactly length digits.
func ValidatePostalCode(code string, length int) error {
	if length <= 0 {
		length = DefaultPostalCodeLength
	}
	if !digits(code, length) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "postal code must be exactly %d digits", length)
	}
	return nil
}

func digits(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "numeric":
		return "must contain only digits"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
