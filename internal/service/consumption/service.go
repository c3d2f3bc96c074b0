package consumption

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/cache"
	"github.com/arvindpatil/dairyos/internal/domain/models"
	"github.com/arvindpatil/dairyos/pkg/clients/dairy"
)

// Service assembles the monthly consumption view model for the portals:
// records fetched through the dairy client (cache-aside), reduced by the
// aggregator, streak and intensity calculators.
type Service struct {
	client dairy.Client
	store  cache.Store
	logger *zap.Logger
}

// NewService wires a new consumption service instance.
func NewService(client dairy.Client, store cache.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, store: store, logger: logger}
}

// MonthlySummary returns the derived statistics and heat-map intensities for
// one month. Fresh cached records are served without a round-trip; stale ones
// are only used as a fallback when the refetch fails transiently.
func (s *Service) MonthlySummary(ctx context.Context, month models.Month) (*models.MonthlySummary, error) {
	records, err := s.monthRecords(ctx, month)
	if err != nil {
		return nil, err
	}

	agg, err := Aggregate(records)
	if err != nil {
		return nil, err
	}

	merged, err := models.MergeByDay(records)
	if err != nil {
		return nil, err
	}

	return &models.MonthlySummary{
		Month:       month,
		Records:     merged,
		Aggregate:   *agg,
		Intensities: IntensityMap(merged, agg.MaxDailyLiters),
	}, nil
}

// Export streams the server-generated export file for a month. Exports are
// produced upstream; nothing is cached here.
func (s *Service) Export(ctx context.Context, month models.Month) (io.ReadCloser, string, error) {
	return s.client.ExportConsumption(ctx, month)
}

func (s *Service) monthRecords(ctx context.Context, month models.Month) ([]models.ConsumptionRecord, error) {
	key := cache.ConsumptionKey(month)

	var cached []models.ConsumptionRecord
	freshness, err := s.store.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("consumption cache read failed", zap.String("key", key), zap.Error(err))
		freshness = cache.Miss
	}
	if freshness == cache.Fresh {
		return cached, nil
	}

	records, err := s.client.FetchConsumption(ctx, month)
	if err != nil {
		var netErr *models.NetworkError
		if errors.As(err, &netErr) && freshness == cache.Stale {
			s.logger.Warn("serving stale consumption snapshot after fetch failure",
				zap.String("month", month.String()), zap.Error(err))
			return cached, nil
		}
		return nil, err
	}

	if err := s.store.Set(ctx, key, records); err != nil {
		s.logger.Warn("consumption cache write failed", zap.String("key", key), zap.Error(err))
	}
	return records, nil
}
