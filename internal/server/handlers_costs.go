package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

type costRequestPayload struct {
	TreeID      string `json:"tree_id"`
	PlotID      string `json:"plot_id"`
	CostDate    string `json:"cost_date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (h *httpHandler) handleAddCost(c *gin.Context) {
	var request costRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	amount, err := decimal.NewFromString(request.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_amount"})
		return
	}

	var costDate time.Time
	if request.CostDate != "" {
		parsed, err := parseDate(request.CostDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cost_date"})
			return
		}
		costDate = parsed
	}

	record, err := h.farmService.AddCost(c.Request.Context(), farm.AddCostInput{
		TreeID:      request.TreeID,
		PlotID:      request.PlotID,
		CostDate:    costDate,
		Category:    request.Category,
		Description: request.Description,
		Amount:      amount,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCostPayload(*record))
}

func (h *httpHandler) handleListCosts(c *gin.Context) {
	filter := farm.CostFilter{
		TreeID:   c.Query("tree_id"),
		PlotID:   c.Query("plot_id"),
		Category: c.Query("category"),
	}
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_from"})
			return
		}
		filter.From = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_to"})
			return
		}
		filter.To = parsed
	}

	records, err := h.farmService.ListCosts(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	total, err := h.farmService.TotalCosts(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"costs": toCostPayloads(records),
		"total": total.StringFixed(2),
	})
}

func (h *httpHandler) handleDeleteCost(c *gin.Context) {
	if err := h.farmService.DeleteCost(c.Request.Context(), c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
