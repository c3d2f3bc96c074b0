package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed
}

func TestConsumptionRecordUnmarshalFieldNames(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"quantity field", `{"date":"2024-06-01","quantity":2.5}`, "2.5"},
		{"liters field", `{"date":"2024-06-01","liters":1.75}`, "1.75"},
		{"quantity wins over liters", `{"date":"2024-06-01","quantity":3,"liters":9}`, "3"},
		{"missing value is zero", `{"date":"2024-06-01"}`, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rec ConsumptionRecord
			require.NoError(t, json.Unmarshal([]byte(tc.body), &rec))
			assert.Equal(t, day(t, "2024-06-01"), rec.Date)
			assert.True(t, rec.Quantity.Equal(decimal.RequireFromString(tc.want)),
				"got %s", rec.Quantity)
		})
	}
}

func TestConsumptionRecordUnmarshalBadDate(t *testing.T) {
	var rec ConsumptionRecord
	err := json.Unmarshal([]byte(`{"date":"June 1st","quantity":1}`), &rec)
	require.Error(t, err)

	var dErr *DataIntegrityError
	assert.ErrorAs(t, err, &dErr)
}

func TestMergeByDaySumsDuplicates(t *testing.T) {
	records := []ConsumptionRecord{
		{Date: day(t, "2024-06-02"), Quantity: decimal.NewFromFloat(1.5)},
		{Date: day(t, "2024-06-01"), Quantity: decimal.NewFromInt(2)},
		{Date: day(t, "2024-06-02"), Quantity: decimal.NewFromFloat(0.5)},
	}

	merged, err := MergeByDay(records)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	assert.Equal(t, day(t, "2024-06-01"), merged[0].Date)
	assert.True(t, merged[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, day(t, "2024-06-02"), merged[1].Date)
	assert.True(t, merged[1].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestMergeByDayRejectsNegativeQuantity(t *testing.T) {
	records := []ConsumptionRecord{
		{Date: day(t, "2024-06-01"), Quantity: decimal.NewFromInt(-1)},
	}

	_, err := MergeByDay(records)
	var dErr *DataIntegrityError
	require.ErrorAs(t, err, &dErr)
}
