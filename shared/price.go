package shared

const (
	// MinPriceCents is the lowest representable contract price.
	MinPriceCents = 0
	// MaxPriceCents is the highest representable contract price.
	MaxPriceCents = 100
)

// CentsToDecimal converts a contract price in cents to its decimal form.
func CentsToDecimal(cents int) float64 {
	return float64(cents) / 100
}

// DecimalToCents converts a decimal contract price to whole cents.
func DecimalToCents(price float64) int {
	return int(price*100 + 0.5)
}
