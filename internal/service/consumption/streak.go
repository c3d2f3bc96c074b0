package consumption

import (
	"sort"

	"github.com/arvindpatil/dairyos/internal/domain/models"
)

// Streak counts consecutive delivery days ending at the most recent record.
// It walks the records newest-first and stops at the first zero-quantity day,
// at a gap in the calendar, or at the end of the available history. The
// calculator is month-agnostic: callers wanting a streak across months supply
// a multi-month record set.
func Streak(records []models.ConsumptionRecord) int {
	if len(records) == 0 {
		return 0
	}

	sorted := make([]models.ConsumptionRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	if !sorted[0].Quantity.IsPositive() {
		return 0
	}

	streak := 1
	prev := sorted[0].Day()
	for _, rec := range sorted[1:] {
		if !rec.Day().Equal(prev.AddDate(0, 0, -1)) {
			// A day with no record is a day without delivery.
			break
		}
		if !rec.Quantity.IsPositive() {
			break
		}
		streak++
		prev = rec.Day()
	}
	return streak
}
