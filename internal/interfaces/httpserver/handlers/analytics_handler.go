package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/analytics"
	"licitahub/services/support-chat/internal/utils/platformerrors"
)

// AnalyticsHandler serves support rollup statistics.
type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
	log        zerolog.Logger
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(aggregator *analytics.Aggregator, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		aggregator: aggregator,
		log:        log.With().Str("component", "analytics_handler").Logger(),
	}
}

// Summary handles GET /v1/analytics/summary. The window defaults to the
// last 30 days; from and to accept RFC 3339 timestamps.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			platformerrors.WriteValidationError(c, "from must be RFC 3339")
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			platformerrors.WriteValidationError(c, "to must be RFC 3339")
			return
		}
		to = t
	}
	if to.Before(from) {
		platformerrors.WriteValidationError(c, "to must not precede from")
		return
	}

	summary, err := h.aggregator.Summarize(c.Request.Context(), from, to)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, summary)
}
