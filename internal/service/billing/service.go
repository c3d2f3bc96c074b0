package billing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/cache"
	"github.com/arvindpatil/dairyos/internal/domain/models"
	"github.com/arvindpatil/dairyos/pkg/clients/dairy"
)

// Service covers the read side of bills: fetching snapshots through the
// cache and triggering server-side generation.
type Service struct {
	client dairy.Client
	store  cache.Store
	logger *zap.Logger
}

// NewService wires a new billing read service.
func NewService(client dairy.Client, store cache.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, store: store, logger: logger}
}

// GetBill returns the customer's bill for a month, serving a fresh cached
// snapshot when one exists.
func (s *Service) GetBill(ctx context.Context, customerID uuid.UUID, month models.Month) (*models.Bill, error) {
	key := cache.BillKey(customerID, month)

	var cached models.Bill
	freshness, err := s.store.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("bill cache read failed", zap.String("key", key), zap.Error(err))
		freshness = cache.Miss
	}
	if freshness == cache.Fresh {
		return &cached, nil
	}

	bill, err := s.client.GetBill(ctx, customerID, month)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, key, bill); err != nil {
		s.logger.Warn("bill cache write failed", zap.String("key", key), zap.Error(err))
	}
	return bill, nil
}

// GenerateBill asks the server to create or refresh the bill for a customer
// month. Generation is a mutation, so cached reads for that month are
// invalidated rather than updated in place.
func (s *Service) GenerateBill(ctx context.Context, customerID uuid.UUID, month models.Month) (*models.Bill, error) {
	bill, err := s.client.GenerateBill(ctx, customerID, month)
	if err != nil {
		return nil, err
	}

	if err := s.store.Invalidate(ctx, cache.MonthKeys(customerID, month)...); err != nil {
		s.logger.Warn("cache invalidation failed after bill generation",
			zap.String("month", month.String()), zap.Error(err))
	}
	return bill, nil
}

// LastPayment proxies the most recent successful payment lookup.
func (s *Service) LastPayment(ctx context.Context) (*models.LastPayment, error) {
	return s.client.LastPayment(ctx)
}
