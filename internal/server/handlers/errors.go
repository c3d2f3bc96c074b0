package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arvindpatil/dairyos/internal/domain/models"
)

// respondError maps the core error taxonomy onto HTTP statuses and renders
// the single normalized message the portals display.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	retryable := false

	var vErr *models.ValidationError
	var sErr *models.InvalidStateError
	var tErr *models.TimeoutError
	var nErr *models.NetworkError
	var dErr *models.DataIntegrityError

	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.As(err, &sErr):
		status = http.StatusConflict
	case errors.As(err, &tErr):
		status = http.StatusGatewayTimeout
		retryable = true
	case errors.As(err, &nErr):
		status = http.StatusBadGateway
		retryable = true
	case errors.As(err, &dErr):
		status = http.StatusBadGateway
	}

	body := gin.H{"error": models.Normalize(err)}
	if retryable {
		body["retryable"] = true
	}
	c.JSON(status, body)
}
