package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/domain/models"
	"github.com/arvindpatil/dairyos/pkg/clients/dairy"
)

// PDFPoller waits for the server-side PDF worker to publish a bill's
// artifact. Attempts are bounded; exhaustion surfaces as a TimeoutError the
// portal renders as "try again", and cancelling the context stops polling
// without applying a late-arriving result.
type PDFPoller struct {
	client      dairy.Client
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger
}

// NewPDFPoller builds a poller with the given probe interval and attempt
// budget.
func NewPDFPoller(client dairy.Client, interval time.Duration, maxAttempts int, logger *zap.Logger) *PDFPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFPoller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Wait polls until the artifact is ready and returns its URL. Transient probe
// failures consume an attempt rather than aborting the wait.
func (p *PDFPoller) Wait(ctx context.Context, billID uuid.UUID) (string, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		status, err := p.client.GetPDFStatus(ctx, billID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			p.logger.Debug("pdf status probe failed",
				zap.String("bill_id", billID.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		case status.Ready:
			return status.ArtifactURL, nil
		}

		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.interval):
		}
	}

	return "", &models.TimeoutError{Op: "pdf generation wait", Attempts: p.maxAttempts}
}
