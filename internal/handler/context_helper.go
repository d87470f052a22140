package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smkharapan/guru-ganti-api/internal/middleware"
	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// parseDate reads a required YYYY-MM-DD value.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date is required (YYYY-MM-DD)")
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return date, nil
}

// parseOptionalDate reads an optional YYYY-MM-DD value, nil when absent.
func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return &date, nil
}
