package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		status, message = http.StatusBadRequest, "invalid planning parameters"
	case errors.Is(err, domain.ErrAllocationMismatch):
		status, message = http.StatusBadRequest, "allocation does not match produced quantity"
	case errors.Is(err, domain.ErrEmptySelection):
		status, message = http.StatusBadRequest, "nothing selected"
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyCommitted):
		status, message = http.StatusConflict, "allocation already committed"
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
