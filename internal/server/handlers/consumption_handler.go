package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/domain/models"
	"github.com/arvindpatil/dairyos/internal/service/consumption"
)

// ConsumptionHandler serves the monthly summary view model and the export
// stream to the portals.
type ConsumptionHandler struct {
	svc    *consumption.Service
	logger *zap.Logger
}

// NewConsumptionHandler constructs the HTTP handler adapter.
func NewConsumptionHandler(svc *consumption.Service, logger *zap.Logger) *ConsumptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsumptionHandler{svc: svc, logger: logger}
}

// Summary returns totals, streak and heat-map intensities for one month.
func (h *ConsumptionHandler) Summary(c *gin.Context) {
	month, err := models.ParseMonth(c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.svc.MonthlySummary(c.Request.Context(), month)
	if err != nil {
		h.logger.Error("failed building monthly summary",
			zap.String("month", month.String()), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Export streams the server-generated export file for a month.
func (h *ConsumptionHandler) Export(c *gin.Context) {
	month, err := models.ParseMonth(c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}

	stream, contentType, err := h.svc.Export(c.Request.Context(), month)
	if err != nil {
		h.logger.Error("failed fetching export", zap.String("month", month.String()), zap.Error(err))
		respondError(c, err)
		return
	}
	defer func() { _ = stream.Close() }()

	c.Header("Content-Disposition", `attachment; filename="consumption-`+month.String()+`.csv"`)
	c.DataFromReader(http.StatusOK, -1, contentType, stream, nil)
}
