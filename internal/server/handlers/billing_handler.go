package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/domain/models"
	"github.com/arvindpatil/dairyos/internal/service/billing"
)

// BillingHandler exposes bill reads, generation, payment operations and the
// PDF wait endpoint.
type BillingHandler struct {
	bills      *billing.Service
	reconciler *billing.Reconciler
	poller     *billing.PDFPoller
	logger     *zap.Logger
}

// NewBillingHandler constructs the HTTP handler adapter.
func NewBillingHandler(bills *billing.Service, reconciler *billing.Reconciler, poller *billing.PDFPoller, logger *zap.Logger) *BillingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingHandler{bills: bills, reconciler: reconciler, poller: poller, logger: logger}
}

// billRef identifies a bill by customer and month, the way the upstream API
// addresses bills.
type billRef struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Month      string `json:"month" binding:"required"`
}

func (ref billRef) resolve() (uuid.UUID, models.Month, error) {
	customerID, err := uuid.Parse(ref.CustomerID)
	if err != nil {
		return uuid.Nil, models.Month{}, models.NewValidationError("customer_id", "must be a valid UUID")
	}
	month, err := models.ParseMonth(ref.Month)
	if err != nil {
		return uuid.Nil, models.Month{}, err
	}
	return customerID, month, nil
}

// fetchBill resolves the reference and loads the current bill snapshot the
// payment operations run their lifecycle predicates against.
func (h *BillingHandler) fetchBill(c *gin.Context, ref billRef) (*models.Bill, bool) {
	customerID, month, err := ref.resolve()
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	bill, err := h.bills.GetBill(c.Request.Context(), customerID, month)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return bill, true
}

// GetBill returns the bill snapshot for a customer month.
func (h *BillingHandler) GetBill(c *gin.Context) {
	ref := billRef{CustomerID: c.Query("customer_id"), Month: c.Query("month")}
	customerID, month, err := ref.resolve()
	if err != nil {
		respondError(c, err)
		return
	}

	bill, err := h.bills.GetBill(c.Request.Context(), customerID, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// GenerateBill triggers server-side bill generation for a customer month.
func (h *BillingHandler) GenerateBill(c *gin.Context) {
	var ref billRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		h.logger.Warn("invalid generate payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	customerID, month, err := ref.resolve()
	if err != nil {
		respondError(c, err)
		return
	}

	bill, err := h.bills.GenerateBill(c.Request.Context(), customerID, month)
	if err != nil {
		h.logger.Error("bill generation failed",
			zap.String("month", month.String()), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// WaitPDF blocks until the bill's PDF artifact is published or the polling
// budget runs out. Cancellation follows the request context, so a client
// that navigates away stops the poll.
func (h *BillingHandler) WaitPDF(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("billID"))
	if err != nil {
		respondError(c, models.NewValidationError("bill_id", "must be a valid UUID"))
		return
	}

	url, err := h.poller.Wait(c.Request.Context(), billID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pdf_url": url})
}

// CreateOrder starts a checkout attempt for the referenced bill.
func (h *BillingHandler) CreateOrder(c *gin.Context) {
	var ref billRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		h.logger.Warn("invalid order payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	bill, ok := h.fetchBill(c, ref)
	if !ok {
		return
	}

	order, err := h.reconciler.CreateOrder(c.Request.Context(), bill)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type confirmRequest struct {
	billRef
	OrderID string `json:"order_id" binding:"required"`
	Token   string `json:"token" binding:"required"`
}

// ConfirmPayment forwards the checkout widget's confirmation token.
func (h *BillingHandler) ConfirmPayment(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid confirm payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	bill, ok := h.fetchBill(c, req.billRef)
	if !ok {
		return
	}

	order := &models.PaymentOrder{BillID: bill.ID, ExternalOrderID: req.OrderID}
	updated, err := h.reconciler.ConfirmExternalPayment(c.Request.Context(), bill, order, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type markPaidRequest struct {
	billRef
	Method string `json:"method" binding:"required"`
	Notes  string `json:"notes"`
}

// MarkPaid applies the admin settlement shortcut.
func (h *BillingHandler) MarkPaid(c *gin.Context) {
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid mark-paid payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	bill, ok := h.fetchBill(c, req.billRef)
	if !ok {
		return
	}

	updated, err := h.reconciler.MarkPaid(c.Request.Context(), bill, req.Method, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type referenceRequest struct {
	billRef
	UTR string `json:"utr" binding:"required"`
}

// SubmitReference records a customer-reported offline transfer.
func (h *BillingHandler) SubmitReference(c *gin.Context) {
	var req referenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reference payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	bill, ok := h.fetchBill(c, req.billRef)
	if !ok {
		return
	}

	updated, err := h.reconciler.SubmitReference(c.Request.Context(), bill, req.UTR)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// LastPayment returns the customer's most recent successful payment, or 204
// when none exists yet.
func (h *BillingHandler) LastPayment(c *gin.Context) {
	payment, err := h.bills.LastPayment(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if payment == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, payment)
}
