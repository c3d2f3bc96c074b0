package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvindpatil/dairyos/internal/domain/models"
)

func TestPollerReturnsURLOnceReady(t *testing.T) {
	probes := 0
	client := &stubClient{
		getPDFStatus: func(_ context.Context, _ uuid.UUID) (*models.PDFStatus, error) {
			probes++
			if probes < 3 {
				return &models.PDFStatus{}, nil
			}
			return &models.PDFStatus{Ready: true, ArtifactURL: "https://cdn.example.com/bill.pdf"}, nil
		},
	}
	p := NewPDFPoller(client, time.Millisecond, 10, nil)

	url, err := p.Wait(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/bill.pdf", url)
	assert.Equal(t, 3, probes)
}

func TestPollerTimesOutAfterAttemptBudget(t *testing.T) {
	probes := 0
	client := &stubClient{
		getPDFStatus: func(_ context.Context, _ uuid.UUID) (*models.PDFStatus, error) {
			probes++
			return &models.PDFStatus{}, nil
		},
	}
	p := NewPDFPoller(client, time.Millisecond, 4, nil)

	_, err := p.Wait(context.Background(), uuid.New())

	var tErr *models.TimeoutError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 4, tErr.Attempts)
	assert.Equal(t, 4, probes)
}

func TestPollerTransientProbeFailureConsumesAttempt(t *testing.T) {
	probes := 0
	client := &stubClient{
		getPDFStatus: func(_ context.Context, _ uuid.UUID) (*models.PDFStatus, error) {
			probes++
			if probes == 1 {
				return nil, &models.NetworkError{Op: "get pdf status", StatusCode: 503}
			}
			return &models.PDFStatus{Ready: true, ArtifactURL: "https://cdn.example.com/bill.pdf"}, nil
		},
	}
	p := NewPDFPoller(client, time.Millisecond, 3, nil)

	url, err := p.Wait(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/bill.pdf", url)
}

func TestPollerStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &stubClient{
		getPDFStatus: func(_ context.Context, _ uuid.UUID) (*models.PDFStatus, error) {
			cancel()
			return &models.PDFStatus{}, nil
		},
	}
	p := NewPDFPoller(client, time.Hour, 10, nil)

	_, err := p.Wait(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
