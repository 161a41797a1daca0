package enums

// PriceTier records which price source produced a line's unit price.
type PriceTier string

const (
	PriceTierBase     PriceTier = "base"
	PriceTierRetailer PriceTier = "retailer"
	PriceTierQuoted   PriceTier = "quoted"
)

// String implements fmt.Stringer.
func (p PriceTier) String() string {
	return string(p)
}
