package billing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/cache"
	"github.com/arvindpatil/dairyos/internal/domain/models"
	"github.com/arvindpatil/dairyos/pkg/clients/dairy"
)

// Reconciler drives a bill's payment lifecycle: order creation, external
// checkout confirmation, admin mark-paid and manual reference submission.
// Lifecycle predicates are checked locally before any request leaves the
// process, a per-bill guard rejects concurrent status mutations, and every
// successful mutation invalidates cached reads for the bill's month.
type Reconciler struct {
	client dairy.Client
	store  cache.Store
	logger *zap.Logger

	mu          sync.Mutex
	inFlight    map[uuid.UUID]struct{}
	attemptKeys map[uuid.UUID]string
	outstanding map[uuid.UUID]outstandingOrder
}

// outstandingOrder remembers where a created order's bill lives so the
// reconciliation sweep can refetch it later.
type outstandingOrder struct {
	CustomerID      uuid.UUID
	Month           models.Month
	ExternalOrderID string
}

// NewReconciler wires a payment reconciler.
func NewReconciler(client dairy.Client, store cache.Store, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		client:      client,
		store:       store,
		logger:      logger,
		inFlight:    make(map[uuid.UUID]struct{}),
		attemptKeys: make(map[uuid.UUID]string),
		outstanding: make(map[uuid.UUID]outstandingOrder),
	}
}

// begin claims the per-bill mutation slot or rejects the caller.
func (r *Reconciler) begin(op string, billID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[billID]; busy {
		return &models.InvalidStateError{Op: op, Reason: "another payment operation for this bill is still in progress"}
	}
	r.inFlight[billID] = struct{}{}
	return nil
}

func (r *Reconciler) end(billID uuid.UUID) {
	r.mu.Lock()
	delete(r.inFlight, billID)
	r.mu.Unlock()
}

// CreateOrder creates (or idempotently replays) the checkout order for a
// bill. The same Idempotency-Key is resent until the order settles, whether
// the repeat follows a transport failure with unknown server-side outcome or
// a duplicate user action, so the server returns the outstanding order rather
// than minting a second active one; success is never assumed locally until
// the order identifier has been received.
func (r *Reconciler) CreateOrder(ctx context.Context, bill *models.Bill) (*models.PaymentOrder, error) {
	if !CanCreateOrder(bill.Status) {
		return nil, &models.InvalidStateError{Op: "create order", Status: bill.Status}
	}
	if err := r.begin("create order", bill.ID); err != nil {
		return nil, err
	}
	defer r.end(bill.ID)

	r.mu.Lock()
	key, ok := r.attemptKeys[bill.ID]
	if !ok {
		key = uuid.NewString()
		r.attemptKeys[bill.ID] = key
	}
	r.mu.Unlock()

	order, err := r.client.CreatePaymentOrder(ctx, bill.ID, key)
	if err != nil {
		var netErr *models.NetworkError
		if !errors.As(err, &netErr) {
			// Definitive rejection: the attempt is over, a fresh one
			// gets a fresh key. Transport failures keep the key so a
			// retry replays the same attempt.
			r.mu.Lock()
			delete(r.attemptKeys, bill.ID)
			r.mu.Unlock()
		}
		return nil, err
	}

	if order.Amount != models.AmountMinorUnits(bill.TotalAmount) {
		r.mu.Lock()
		delete(r.attemptKeys, bill.ID)
		r.mu.Unlock()
		return nil, &models.DataIntegrityError{Reason: "payment order amount does not match the bill total"}
	}

	r.mu.Lock()
	// The attempt key outlives success: it is only cleared by settleLocal,
	// so a repeated call replays this order instead of opening a second one.
	r.outstanding[bill.ID] = outstandingOrder{
		CustomerID:      bill.CustomerID,
		Month:           bill.Month,
		ExternalOrderID: order.ExternalOrderID,
	}
	r.mu.Unlock()

	r.invalidateMonth(ctx, bill.CustomerID, bill.Month)
	r.logger.Info("payment order created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("order_id", order.ExternalOrderID))
	return order, nil
}

// ConfirmExternalPayment forwards the checkout widget's confirmation token
// for server-side verification and moves the bill toward PAID. The token is
// opaque; nothing in it is validated locally beyond presence.
func (r *Reconciler) ConfirmExternalPayment(ctx context.Context, bill *models.Bill, order *models.PaymentOrder, confirmationToken string) (*models.Bill, error) {
	if strings.TrimSpace(confirmationToken) == "" {
		return nil, models.NewValidationError("token", "confirmation token must not be empty")
	}
	if order == nil || order.BillID != bill.ID {
		return nil, models.NewValidationError("order", "order does not belong to this bill")
	}
	if !CanConfirmPayment(bill.Status) {
		return nil, &models.InvalidStateError{Op: "confirm payment", Status: bill.Status}
	}
	if err := r.begin("confirm payment", bill.ID); err != nil {
		return nil, err
	}
	defer r.end(bill.ID)

	updated, err := r.client.ConfirmPayment(ctx, bill.ID, confirmationToken)
	if err != nil {
		return nil, err
	}

	r.settleLocal(bill.ID)
	r.invalidateMonth(ctx, bill.CustomerID, bill.Month)
	r.logger.Info("payment confirmed",
		zap.String("bill_id", bill.ID.String()),
		zap.String("order_id", order.ExternalOrderID))
	return updated, nil
}

// MarkPaid is the administrative settlement shortcut for cash and similar
// out-of-band payments.
func (r *Reconciler) MarkPaid(ctx context.Context, bill *models.Bill, method, notes string) (*models.Bill, error) {
	if strings.TrimSpace(method) == "" {
		return nil, models.NewValidationError("method", "payment method must not be empty")
	}
	if !CanMarkPaid(bill.Status) {
		return nil, &models.InvalidStateError{Op: "mark paid", Status: bill.Status}
	}
	if err := r.begin("mark paid", bill.ID); err != nil {
		return nil, err
	}
	defer r.end(bill.ID)

	updated, err := r.client.MarkPaid(ctx, bill.ID, method, notes)
	if err != nil {
		return nil, err
	}

	r.settleLocal(bill.ID)
	r.invalidateMonth(ctx, bill.CustomerID, bill.Month)
	r.logger.Info("bill marked paid",
		zap.String("bill_id", bill.ID.String()),
		zap.String("method", method))
	return updated, nil
}

// SubmitReference reports a customer's offline transfer by its bank-issued
// UTR. The bill stays pending until an admin confirms the reference.
func (r *Reconciler) SubmitReference(ctx context.Context, bill *models.Bill, utr string) (*models.Bill, error) {
	if strings.TrimSpace(utr) == "" {
		return nil, models.NewValidationError("utr", "transaction reference must not be empty")
	}
	if !CanSubmitReference(bill.Status) {
		return nil, &models.InvalidStateError{Op: "submit reference", Status: bill.Status}
	}
	if err := r.begin("submit reference", bill.ID); err != nil {
		return nil, err
	}
	defer r.end(bill.ID)

	updated, err := r.client.SubmitReference(ctx, bill.ID, strings.TrimSpace(utr))
	if err != nil {
		return nil, err
	}

	// The order stays outstanding: the sweep keeps watching until the
	// admin confirms or rejects the reference server-side.
	r.invalidateMonth(ctx, bill.CustomerID, bill.Month)
	r.logger.Info("payment reference submitted", zap.String("bill_id", bill.ID.String()))
	return updated, nil
}

// ReconcileOutstanding refetches every bill with a locally known outstanding
// order and settles the ones the server now reports as PAID (the provider
// notifies the server directly, so the client can miss the transition).
// Returns the number of bills settled.
func (r *Reconciler) ReconcileOutstanding(ctx context.Context) int {
	r.mu.Lock()
	snapshot := make(map[uuid.UUID]outstandingOrder, len(r.outstanding))
	for id, o := range r.outstanding {
		snapshot[id] = o
	}
	r.mu.Unlock()

	settled := 0
	for billID, o := range snapshot {
		bill, err := r.client.GetBill(ctx, o.CustomerID, o.Month)
		if err != nil {
			r.logger.Warn("reconciliation fetch failed",
				zap.String("bill_id", billID.String()), zap.Error(err))
			continue
		}
		if bill.Status != models.StatusPaid {
			continue
		}

		r.settleLocal(billID)
		r.invalidateMonth(ctx, o.CustomerID, o.Month)
		r.logger.Info("outstanding order settled by server",
			zap.String("bill_id", billID.String()),
			zap.String("order_id", o.ExternalOrderID))
		settled++
	}
	return settled
}

// OutstandingOrders reports how many orders await settlement.
func (r *Reconciler) OutstandingOrders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outstanding)
}

func (r *Reconciler) settleLocal(billID uuid.UUID) {
	r.mu.Lock()
	delete(r.outstanding, billID)
	delete(r.attemptKeys, billID)
	r.mu.Unlock()
}

func (r *Reconciler) invalidateMonth(ctx context.Context, customerID uuid.UUID, month models.Month) {
	if err := r.store.Invalidate(ctx, cache.MonthKeys(customerID, month)...); err != nil {
		r.logger.Warn("cache invalidation failed",
			zap.String("month", month.String()), zap.Error(err))
	}
}
