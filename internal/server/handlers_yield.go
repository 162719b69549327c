package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banrai-farm/duriantrack/backend/internal/yield"
)

// resolveWindow turns ?period= presets or explicit ?start=&end= query values
// into a concrete window. An inverted explicit window passes through; the
// analytics engine zeroes it rather than erroring, since date pickers send
// transient state.
func (h *httpHandler) resolveWindow(c *gin.Context) (time.Time, time.Time, bool) {
	if rawPeriod := c.Query("period"); rawPeriod != "" {
		period, err := yield.ParsePeriod(rawPeriod)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_period"})
			return time.Time{}, time.Time{}, false
		}
		start, end := period.Window(h.clock().UTC())
		return start, end, true
	}

	rawStart := c.Query("start")
	rawEnd := c.Query("end")
	if rawStart == "" || rawEnd == "" {
		start, end := yield.PeriodLast30Days.Window(h.clock().UTC())
		return start, end, true
	}

	start, err := parseDate(rawStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_start"})
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_end"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *httpHandler) treeEvents(c *gin.Context, treeID string) ([]yield.YieldChangeEvent, bool) {
	logs, err := h.farmService.ListTreeLogs(c.Request.Context(), treeID)
	if err != nil {
		h.respondServiceError(c, err)
		return nil, false
	}
	return h.extractor.ParseYieldEvents(logs), true
}

func (h *httpHandler) handleYieldAnalytics(c *gin.Context) {
	start, end, ok := h.resolveWindow(c)
	if !ok {
		return
	}
	treeID := c.Param("id")
	if _, err := h.farmService.GetTree(c.Request.Context(), treeID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	key := yield.AnalyticsKey(treeID, start, end)
	if analytics, hit := h.cache.GetAnalytics(c.Request.Context(), key); hit {
		c.JSON(http.StatusOK, analytics)
		return
	}

	events, ok := h.treeEvents(c, treeID)
	if !ok {
		return
	}
	analytics := yield.CalculateYieldAnalytics(events, start, end)
	h.cache.SetAnalytics(c.Request.Context(), key, analytics)
	c.JSON(http.StatusOK, analytics)
}

func (h *httpHandler) handleYieldTrend(c *gin.Context) {
	start, end, ok := h.resolveWindow(c)
	if !ok {
		return
	}
	treeID := c.Param("id")
	if _, err := h.farmService.GetTree(c.Request.Context(), treeID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	key := yield.TrendKey(treeID, start, end)
	if points, hit := h.cache.GetTrend(c.Request.Context(), key); hit {
		c.JSON(http.StatusOK, points)
		return
	}

	events, ok := h.treeEvents(c, treeID)
	if !ok {
		return
	}
	points := yield.GenerateYieldTrendData(events, start, end)
	h.cache.SetTrend(c.Request.Context(), key, points)
	c.JSON(http.StatusOK, points)
}

func (h *httpHandler) handleYieldPeriods(c *gin.Context) {
	now := h.clock().UTC()
	type periodPayload struct {
		Name  string    `json:"name"`
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	payloads := make([]periodPayload, 0, len(yield.Periods()))
	for _, period := range yield.Periods() {
		start, end := period.Window(now)
		payloads = append(payloads, periodPayload{Name: string(period), Start: start, End: end})
	}
	c.JSON(http.StatusOK, payloads)
}
