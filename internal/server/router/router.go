package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(consumptionHandler *handlers.ConsumptionHandler, billingHandler *handlers.BillingHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.GET("/consumption/summary", consumptionHandler.Summary)
		api.GET("/consumption/export", consumptionHandler.Export)

		api.GET("/bills", billingHandler.GetBill)
		api.POST("/bills/generate", billingHandler.GenerateBill)
		api.GET("/bills/:billID/pdf", billingHandler.WaitPDF)

		api.POST("/payments/order", billingHandler.CreateOrder)
		api.POST("/payments/confirm", billingHandler.ConfirmPayment)
		api.POST("/payments/mark-paid", billingHandler.MarkPaid)
		api.POST("/payments/reference", billingHandler.SubmitReference)
		api.GET("/payments/last", billingHandler.LastPayment)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
