package enums

// QuoteStatus tracks the review state of a negotiated price.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
)

func (q QuoteStatus) String() string {
	return string(q)
}

func (q QuoteStatus) IsValid() bool {
	switch q {
	case QuoteStatusPending, QuoteStatusApproved, QuoteStatusRejected:
		return true
	default:
		return false
	}
}
