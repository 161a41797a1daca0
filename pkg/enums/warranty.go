package enums

import "fmt"

// WarrantyChoice selects the warranty coverage purchased for a product.
type WarrantyChoice string

const (
	WarrantyStandard WarrantyChoice = "standard"
	WarrantyExtended WarrantyChoice = "extended"
)

// String implements fmt.Stringer.
func (w WarrantyChoice) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WarrantyChoice.
func (w WarrantyChoice) IsValid() bool {
	return w == WarrantyStandard || w == WarrantyExtended
}

// ParseWarrantyChoice converts raw input into a WarrantyChoice; empty input means standard.
func ParseWarrantyChoice(value string) (WarrantyChoice, error) {
	switch WarrantyChoice(value) {
	case "", WarrantyStandard:
		return WarrantyStandard, nil
	case WarrantyExtended:
		return WarrantyExtended, nil
	}
	return "", fmt.Errorf("invalid warranty choice %q", value)
}
