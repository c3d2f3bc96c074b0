package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ConsumptionRecord is one day's delivered quantity in liters. Records are
// read-only snapshots; the authoritative copy lives upstream.
type ConsumptionRecord struct {
	Date     time.Time
	Quantity decimal.Decimal
}

// consumptionRecordWire tolerates the two field names the upstream API has
// historically used for the measured value. A missing value decodes as zero.
type consumptionRecordWire struct {
	Date     string           `json:"date"`
	Quantity *decimal.Decimal `json:"quantity"`
	Liters   *decimal.Decimal `json:"liters"`
}

func (r *ConsumptionRecord) UnmarshalJSON(data []byte) error {
	var wire consumptionRecordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	day, err := time.Parse(dateLayout, strings.TrimSpace(wire.Date))
	if err != nil {
		return &DataIntegrityError{Reason: "consumption record has unparseable date " + quote(wire.Date)}
	}

	qty := decimal.Zero
	switch {
	case wire.Quantity != nil:
		qty = *wire.Quantity
	case wire.Liters != nil:
		qty = *wire.Liters
	}

	r.Date = day
	r.Quantity = qty
	return nil
}

func quote(s string) string { return `"` + s + `"` }

func (r ConsumptionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date     string          `json:"date"`
		Quantity decimal.Decimal `json:"quantity"`
	}{Date: r.Date.Format(dateLayout), Quantity: r.Quantity})
}

// Day returns the record's date truncated to day granularity in UTC.
func (r ConsumptionRecord) Day() time.Time {
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// MergeByDay collapses records onto unique days, summing quantities for
// duplicate dates. The upstream API should never send duplicates, but the
// client must not miscount when it does. A negative quantity is server data
// the client refuses to interpret.
func MergeByDay(records []ConsumptionRecord) ([]ConsumptionRecord, error) {
	byDay := make(map[time.Time]decimal.Decimal, len(records))
	for _, rec := range records {
		if rec.Quantity.IsNegative() {
			return nil, &DataIntegrityError{
				Reason: "negative quantity " + rec.Quantity.String() + " on " + rec.Date.Format(dateLayout),
			}
		}
		day := rec.Day()
		byDay[day] = byDay[day].Add(rec.Quantity)
	}

	merged := make([]ConsumptionRecord, 0, len(byDay))
	for day, qty := range byDay {
		merged = append(merged, ConsumptionRecord{Date: day, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged, nil
}

// MonthlyAggregate is derived from one month of records. It is recomputed on
// every fetch and never persisted.
type MonthlyAggregate struct {
	TotalLiters         decimal.Decimal `json:"total_liters"`
	ActiveDays          int             `json:"active_days"`
	Streak              int             `json:"streak"`
	MaxDailyLiters      decimal.Decimal `json:"max_daily_liters"`
	AveragePerActiveDay decimal.Decimal `json:"average_per_active_day"`
}

// MonthlySummary is the portal-facing view model for one month: the raw
// records, the derived aggregate, and a per-day heat-map intensity in [0,1]
// keyed by ISO date.
type MonthlySummary struct {
	Month       Month               `json:"month"`
	Records     []ConsumptionRecord `json:"records"`
	Aggregate   MonthlyAggregate    `json:"aggregate"`
	Intensities map[string]float64  `json:"intensities"`
}
