package consumption

import (
	"github.com/shopspring/decimal"

	"github.com/arvindpatil/dairyos/internal/domain/models"
)

// intensityEpsilon guards the division when every displayed value is zero.
const intensityEpsilon = 1e-9

// Intensity normalizes a day's quantity against the period maximum into a
// heat-map intensity in [0, 1]. Zero quantity is always intensity zero, and
// for a fixed maximum the mapping is monotonic in the quantity.
func Intensity(quantity, maxQuantity decimal.Decimal) float64 {
	if !quantity.IsPositive() {
		return 0
	}

	max := maxQuantity.InexactFloat64()
	if max < intensityEpsilon {
		max = intensityEpsilon
	}

	ratio := quantity.InexactFloat64() / max
	if ratio > 1 {
		return 1
	}
	return ratio
}

// IntensityMap computes the per-day intensities for a record set, keyed by
// ISO date, using the set's own maximum as the scale.
func IntensityMap(records []models.ConsumptionRecord, maxQuantity decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(records))
	for _, rec := range records {
		out[rec.Day().Format("2006-01-02")] = Intensity(rec.Quantity, maxQuantity)
	}
	return out
}
