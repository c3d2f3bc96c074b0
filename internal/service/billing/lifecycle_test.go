package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arvindpatil/dairyos/internal/domain/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.BillStatus
		want     bool
	}{
		{models.StatusUnpaid, models.StatusOrderCreated, true},
		{models.StatusUnpaid, models.StatusPaid, true},
		{models.StatusUnpaid, models.StatusReferenceSubmitted, false},
		{models.StatusOrderCreated, models.StatusReferenceSubmitted, true},
		{models.StatusOrderCreated, models.StatusPaid, true},
		{models.StatusOrderCreated, models.StatusUnpaid, false},
		{models.StatusReferenceSubmitted, models.StatusPaid, true},
		{models.StatusReferenceSubmitted, models.StatusOrderCreated, false},
		{models.StatusPaid, models.StatusUnpaid, false},
		{models.StatusPaid, models.StatusOrderCreated, false},
		{models.StatusPaid, models.StatusPaid, false},
		{models.BillStatus("BOGUS"), models.StatusPaid, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestPaidIsTerminal(t *testing.T) {
	assert.Empty(t, transitions[models.StatusPaid])
}

func TestCanCreateOrder(t *testing.T) {
	assert.True(t, CanCreateOrder(models.StatusUnpaid))
	assert.True(t, CanCreateOrder(models.StatusOrderCreated), "a retry replays the outstanding order")
	assert.False(t, CanCreateOrder(models.StatusReferenceSubmitted))
	assert.False(t, CanCreateOrder(models.StatusPaid))
}

func TestCanConfirmPayment(t *testing.T) {
	assert.False(t, CanConfirmPayment(models.StatusUnpaid), "confirmation requires an order")
	assert.True(t, CanConfirmPayment(models.StatusOrderCreated))
	assert.False(t, CanConfirmPayment(models.StatusReferenceSubmitted))
	assert.False(t, CanConfirmPayment(models.StatusPaid))
}

func TestCanSubmitReference(t *testing.T) {
	assert.False(t, CanSubmitReference(models.StatusUnpaid))
	assert.True(t, CanSubmitReference(models.StatusOrderCreated))
	assert.False(t, CanSubmitReference(models.StatusReferenceSubmitted))
	assert.False(t, CanSubmitReference(models.StatusPaid))
}

func TestCanMarkPaid(t *testing.T) {
	assert.True(t, CanMarkPaid(models.StatusUnpaid))
	assert.True(t, CanMarkPaid(models.StatusOrderCreated))
	assert.True(t, CanMarkPaid(models.StatusReferenceSubmitted))
	assert.False(t, CanMarkPaid(models.StatusPaid))
	assert.False(t, CanMarkPaid(models.BillStatus("BOGUS")))
}
