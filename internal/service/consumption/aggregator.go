package consumption

import (
	"github.com/shopspring/decimal"

	"github.com/arvindpatil/dairyos/internal/domain/models"
)

// Aggregate reduces one month of consumption records into derived statistics.
// Record order does not matter; duplicate dates are summed defensively and a
// negative quantity is rejected as corrupt server data.
func Aggregate(records []models.ConsumptionRecord) (*models.MonthlyAggregate, error) {
	merged, err := models.MergeByDay(records)
	if err != nil {
		return nil, err
	}

	agg := &models.MonthlyAggregate{
		TotalLiters:         decimal.Zero,
		MaxDailyLiters:      decimal.Zero,
		AveragePerActiveDay: decimal.Zero,
	}

	for _, rec := range merged {
		agg.TotalLiters = agg.TotalLiters.Add(rec.Quantity)
		if rec.Quantity.IsPositive() {
			agg.ActiveDays++
		}
		if rec.Quantity.GreaterThan(agg.MaxDailyLiters) {
			agg.MaxDailyLiters = rec.Quantity
		}
	}

	if agg.ActiveDays > 0 {
		agg.AveragePerActiveDay = agg.TotalLiters.
			Div(decimal.NewFromInt(int64(agg.ActiveDays))).
			Round(3)
	}

	agg.Streak = Streak(merged)
	return agg, nil
}
