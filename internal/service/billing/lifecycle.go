package billing

import (
	"github.com/arvindpatil/dairyos/internal/domain/models"
)

// transitions is the monthly bill state machine. PAID is terminal; the
// admin mark-paid shortcut reaches it directly from any earlier state.
// Abandoning a rejected reference back to UNPAID/ORDER_CREATED is decided
// server-side and only observed here.
var transitions = map[models.BillStatus]map[models.BillStatus]struct{}{
	models.StatusUnpaid: {
		models.StatusOrderCreated: {},
		models.StatusPaid:         {},
	},
	models.StatusOrderCreated: {
		models.StatusReferenceSubmitted: {},
		models.StatusPaid:               {},
	},
	models.StatusReferenceSubmitted: {
		models.StatusPaid: {},
	},
	models.StatusPaid: {},
}

// CanTransition reports whether a bill may move from one status to another.
func CanTransition(from, to models.BillStatus) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// CanCreateOrder reports whether a checkout order may be created for the
// status. ORDER_CREATED is included so a retried attempt can replay the
// outstanding order instead of being stranded.
func CanCreateOrder(status models.BillStatus) bool {
	return status == models.StatusUnpaid || status == models.StatusOrderCreated
}

// CanConfirmPayment reports whether an external checkout confirmation
// applies. Confirmation always follows an order; the UNPAID→PAID edge in the
// table belongs to the admin shortcut, not to the checkout widget.
func CanConfirmPayment(status models.BillStatus) bool {
	return status == models.StatusOrderCreated
}

// CanSubmitReference reports whether a manual transfer reference may be
// submitted. A prior order is required: the order is what ties the reference
// to an amount.
func CanSubmitReference(status models.BillStatus) bool {
	return status == models.StatusOrderCreated
}

// CanMarkPaid reports whether the admin settlement shortcut applies. Every
// non-terminal status carries a PAID edge, including REFERENCE_SUBMITTED,
// where mark-paid is the admin confirming the reference.
func CanMarkPaid(status models.BillStatus) bool {
	return CanTransition(status, models.StatusPaid)
}
