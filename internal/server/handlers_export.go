package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/banrai-farm/duriantrack/backend/internal/export"
	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportFarm streams the full farm record book as an xlsx workbook.
func (h *httpHandler) handleExportFarm(c *gin.Context) {
	ctx := c.Request.Context()

	plots, err := h.farmService.ListPlots(ctx)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	sections := make([]farm.Section, 0)
	for _, plot := range plots {
		plotSections, err := h.farmService.ListSections(ctx, plot.ID)
		if err != nil {
			h.respondServiceError(c, err)
			return
		}
		sections = append(sections, plotSections...)
	}
	trees, err := h.farmService.ListAllTrees(ctx)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	logs, err := h.farmService.ListAllTreeLogs(ctx)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	costs, err := h.farmService.ListCosts(ctx, farm.CostFilter{})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	workbook, err := export.BuildFarmReport(export.ReportData{
		Plots:    plots,
		Sections: sections,
		Trees:    trees,
		Logs:     logs,
		Costs:    costs,
	})
	if err != nil {
		h.logger.Error("farm report build failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="farm-report.xlsx"`)
	if err := workbook.Write(c.Writer); err != nil {
		h.logger.Error("farm report write failed", zap.Error(err))
	}
}
