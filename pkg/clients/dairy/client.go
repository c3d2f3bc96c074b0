package dairy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arvindpatil/dairyos/internal/config"
	"github.com/arvindpatil/dairyos/internal/domain/models"
)

// Client exposes the upstream dairy API operations used by the application.
// It is constructed with an already-authenticated capability; nothing in the
// core reads token storage directly.
type Client interface {
	FetchConsumption(ctx context.Context, month models.Month) ([]models.ConsumptionRecord, error)
	ExportConsumption(ctx context.Context, month models.Month) (io.ReadCloser, string, error)
	GenerateBill(ctx context.Context, customerID uuid.UUID, month models.Month) (*models.Bill, error)
	GetBill(ctx context.Context, customerID uuid.UUID, month models.Month) (*models.Bill, error)
	GetPDFStatus(ctx context.Context, billID uuid.UUID) (*models.PDFStatus, error)
	CreatePaymentOrder(ctx context.Context, billID uuid.UUID, idempotencyKey string) (*models.PaymentOrder, error)
	ConfirmPayment(ctx context.Context, billID uuid.UUID, confirmationToken string) (*models.Bill, error)
	MarkPaid(ctx context.Context, billID uuid.UUID, method, notes string) (*models.Bill, error)
	SubmitReference(ctx context.Context, billID uuid.UUID, utr string) (*models.Bill, error)
	LastPayment(ctx context.Context) (*models.LastPayment, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a dairy API client using the provided configuration values.
// Idempotent GETs are retried a bounded number of times on transport failures
// and 5xx responses; mutating calls are never retried automatically.
func NewClient(cfg config.DairyAPIConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.ReadRetries).
		SetRetryWaitTime(300 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &APIClient{httpClient: restyClient}
}

// apiError mirrors the upstream error envelope. Detail is either a flat
// string or a structured list of field violations.
type apiError struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func (e *apiError) message() string {
	if len(e.Detail) == 0 {
		return ""
	}
	var flat string
	if err := json.Unmarshal(e.Detail, &flat); err == nil {
		return flat
	}
	var fields []fieldDetail
	if err := json.Unmarshal(e.Detail, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.Msg)
		}
		return strings.Join(parts, "; ")
	}
	return string(e.Detail)
}

func (e *apiError) violations() []models.FieldViolation {
	var fields []fieldDetail
	if err := json.Unmarshal(e.Detail, &fields); err != nil || len(fields) == 0 {
		return nil
	}
	out := make([]models.FieldViolation, 0, len(fields))
	for _, f := range fields {
		field := ""
		if len(f.Loc) > 0 {
			field = fmt.Sprint(f.Loc[len(f.Loc)-1])
		}
		out = append(out, models.FieldViolation{Field: field, Reason: f.Msg})
	}
	return out
}

// mapError converts a failed round-trip into the client error taxonomy.
func mapError(op string, resp *resty.Response, apiErr *apiError, err error) error {
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}

	code := resp.StatusCode()
	detail := ""
	if apiErr != nil {
		detail = apiErr.message()
	}

	switch {
	case code == http.StatusUnprocessableEntity:
		return &models.ValidationError{Message: "request rejected by the server", Fields: apiErr.violations()}
	case code == http.StatusBadRequest || code == http.StatusConflict:
		return &models.InvalidStateError{Op: op, Reason: detail}
	default:
		return &models.NetworkError{Op: op, StatusCode: code, Detail: detail}
	}
}

func (c *APIClient) FetchConsumption(ctx context.Context, month models.Month) ([]models.ConsumptionRecord, error) {
	records := make([]models.ConsumptionRecord, 0)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("month", month.String()).
		SetResult(&records).
		SetError(apiErr).
		Get("/consumption/mine")
	if err != nil || resp.StatusCode() >= http.StatusBadRequest {
		return nil, mapError("fetch consumption", resp, apiErr, err)
	}

	return records, nil
}

// ExportConsumption streams the server-generated export file. The caller owns
// the returned reader.
func (c *APIClient) ExportConsumption(ctx context.Context, month models.Month) (io.ReadCloser, string, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("month", month.String()).
		SetDoNotParseResponse(true).
		Get("/consumption/export")
	if err != nil {
		return nil, "", &models.NetworkError{Op: "export consumption", Err: err}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		defer func() { _ = resp.RawBody().Close() }()
		return nil, "", &models.NetworkError{Op: "export consumption", StatusCode: resp.StatusCode()}
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return resp.RawBody(), contentType, nil
}

// billWire mirrors the upstream bill payload.
type billWire struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Month       models.Month      `json:"month"`
	TotalLiters decimal.Decimal   `json:"total_liters"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Status      models.BillStatus `json:"status"`
	PDFURL      string            `json:"pdf_url"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (w *billWire) toBill() (*models.Bill, error) {
	if !w.Status.Known() {
		return nil, &models.DataIntegrityError{Reason: fmt.Sprintf("unknown bill status %q", w.Status)}
	}
	return &models.Bill{
		ID:          w.ID,
		CustomerID:  w.UserID,
		Month:       w.Month,
		TotalLiters: w.TotalLiters,
		TotalAmount: w.TotalAmount,
		Status:      w.Status,
		PDFURL:      w.PDFURL,
		CreatedAt:   w.CreatedAt,
	}, nil
}

func (c *APIClient) billRequest(ctx context.Context, op, method, path string, body any) (*models.Bill, error) {
	wire := new(billWire)
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(wire).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil || resp.StatusCode() >= http.StatusBadRequest {
		return nil, mapError(op, resp, apiErr, err)
	}

	return wire.toBill()
}

func (c *APIClient) GenerateBill(ctx context.Context, customerID uuid.UUID, month models.Month) (*models.Bill, error) {
	path := fmt.Sprintf("/bills/generate/%s/%s", customerID, month)
	return c.billRequest(ctx, "generate bill", http.MethodPost, path, nil)
}

func (c *APIClient) GetBill(ctx context.Context, customerID uuid.UUID, month models.Month) (*models.Bill, error) {
	path := fmt.Sprintf("/bills/%s/%s", customerID, month)
	return c.billRequest(ctx, "fetch bill", http.MethodGet, path, nil)
}

// pdfStatusWire mirrors the readiness probe payload: "completed" with a URL
// once the artifact exists, "queued" before that.
type pdfStatusWire struct {
	Status string `json:"status"`
	PDFURL string `json:"pdf_url"`
}

func (c *APIClient) GetPDFStatus(ctx context.Context, billID uuid.UUID) (*models.PDFStatus, error) {
	wire := new(pdfStatusWire)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(wire).
		SetError(apiErr).
		Get(fmt.Sprintf("/bills/%s/pdf-status", billID))
	if err != nil || resp.StatusCode() >= http.StatusBadRequest {
		return nil, mapError("check pdf status", resp, apiErr, err)
	}

	ready := wire.Status == "completed"
	if ready && wire.PDFURL == "" {
		return nil, &models.DataIntegrityError{Reason: "pdf reported ready without an artifact url"}
	}
	return &models.PDFStatus{Ready: ready, ArtifactURL: wire.PDFURL}, nil
}

// paymentOrderWire mirrors the provider order envelope returned by the
// upstream create-order endpoint.
type paymentOrderWire struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ProviderKey string `json:"provider_key"`
	Notes       struct {
		BillID string `json:"bill_id"`
	} `json:"notes"`
}

func (c *APIClient) CreatePaymentOrder(ctx context.Context, billID uuid.UUID, idempotencyKey string) (*models.PaymentOrder, error) {
	wire := new(paymentOrderWire)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", idempotencyKey).
		SetResult(wire).
		SetError(apiErr).
		Post(fmt.Sprintf("/payments/create-order/%s", billID))
	if err != nil || resp.StatusCode() >= http.StatusBadRequest {
		return nil, mapError("create payment order", resp, apiErr, err)
	}

	if wire.ID == "" {
		return nil, &models.DataIntegrityError{Reason: "payment order response missing order id"}
	}
	return &models.PaymentOrder{
		BillID:          billID,
		ExternalOrderID: wire.ID,
		Amount:          wire.Amount,
		Currency:        wire.Currency,
		ProviderKey:     wire.ProviderKey,
	}, nil
}

func (c *APIClient) ConfirmPayment(ctx context.Context, billID uuid.UUID, confirmationToken string) (*models.Bill, error) {
	// The token is opaque: it is forwarded for server-side verification,
	// never inspected locally.
	body := map[string]string{"token": confirmationToken}
	path := fmt.Sprintf("/payments/confirm/%s", billID)
	return c.billRequest(ctx, "confirm payment", http.MethodPost, path, body)
}

func (c *APIClient) MarkPaid(ctx context.Context, billID uuid.UUID, method, notes string) (*models.Bill, error) {
	body := map[string]string{"method": method, "notes": notes}
	path := fmt.Sprintf("/payments/mark-paid/%s", billID)
	return c.billRequest(ctx, "mark paid", http.MethodPost, path, body)
}

func (c *APIClient) SubmitReference(ctx context.Context, billID uuid.UUID, utr string) (*models.Bill, error) {
	body := map[string]string{"utr": utr}
	path := fmt.Sprintf("/payments/submit-reference/%s", billID)
	return c.billRequest(ctx, "submit payment reference", http.MethodPost, path, body)
}

func (c *APIClient) LastPayment(ctx context.Context) (*models.LastPayment, error) {
	payment := new(models.LastPayment)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(payment).
		SetError(apiErr).
		Get("/payments/last")
	if err != nil || resp.StatusCode() >= http.StatusBadRequest {
		return nil, mapError("fetch last payment", resp, apiErr, err)
	}

	if payment.ID == uuid.Nil {
		return nil, nil
	}
	return payment, nil
}
