package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

type plotRequestPayload struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	AreaRai     string `json:"area_rai"`
	SoilType    string `json:"soil_type"`
	Description string `json:"description"`
}

func parseOptionalDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", raw, err)
	}
	return &value, nil
}

// parseDate accepts a bare date or a full RFC3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func (h *httpHandler) handleCreatePlot(c *gin.Context) {
	var request plotRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	areaRai, err := parseOptionalDecimal(request.AreaRai)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_area"})
		return
	}

	plot, err := h.farmService.CreatePlot(c.Request.Context(), farm.CreatePlotInput{
		Code:        request.Code,
		Name:        request.Name,
		AreaRai:     areaRai,
		SoilType:    request.SoilType,
		Description: request.Description,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPlotPayload(*plot))
}

func (h *httpHandler) handleListPlots(c *gin.Context) {
	plots, err := h.farmService.ListPlots(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPlotPayloads(plots))
}

func (h *httpHandler) handleGetPlot(c *gin.Context) {
	plot, err := h.farmService.GetPlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPlotPayload(*plot))
}

func (h *httpHandler) handleUpdatePlot(c *gin.Context) {
	var request plotRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	areaRai, err := parseOptionalDecimal(request.AreaRai)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_area"})
		return
	}

	plot, err := h.farmService.UpdatePlot(c.Request.Context(), c.Param("id"), farm.UpdatePlotInput{
		Name:        request.Name,
		AreaRai:     areaRai,
		SoilType:    request.SoilType,
		Description: request.Description,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPlotPayload(*plot))
}

func (h *httpHandler) handleDeletePlot(c *gin.Context) {
	if err := h.farmService.DeletePlot(c.Request.Context(), c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
