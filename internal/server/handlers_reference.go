package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type referenceRequestPayload struct {
	Name        string `json:"name"`
	Formula     string `json:"formula"`
	TargetPest  string `json:"target_pest"`
	Description string `json:"description"`
}

type varietyPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type fertilizerPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Formula     string `json:"formula,omitempty"`
	Description string `json:"description,omitempty"`
}

type pesticidePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TargetPest  string `json:"target_pest,omitempty"`
	Description string `json:"description,omitempty"`
}

func (h *httpHandler) handleListVarieties(c *gin.Context) {
	rows, err := h.farmService.ListVarieties(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	payloads := make([]varietyPayload, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, varietyPayload{ID: row.ID, Name: row.Name, Description: row.Description})
	}
	c.JSON(http.StatusOK, payloads)
}

func (h *httpHandler) handleCreateVariety(c *gin.Context) {
	var request referenceRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	row, err := h.farmService.CreateVariety(c.Request.Context(), request.Name, request.Description)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, varietyPayload{ID: row.ID, Name: row.Name, Description: row.Description})
}

func (h *httpHandler) handleDeleteVariety(c *gin.Context) {
	h.deleteReference(c, h.farmService.DeleteVariety)
}

func (h *httpHandler) handleListFertilizers(c *gin.Context) {
	rows, err := h.farmService.ListFertilizers(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	payloads := make([]fertilizerPayload, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, fertilizerPayload{ID: row.ID, Name: row.Name, Formula: row.Formula, Description: row.Description})
	}
	c.JSON(http.StatusOK, payloads)
}

func (h *httpHandler) handleCreateFertilizer(c *gin.Context) {
	var request referenceRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	row, err := h.farmService.CreateFertilizer(c.Request.Context(), request.Name, request.Formula, request.Description)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fertilizerPayload{ID: row.ID, Name: row.Name, Formula: row.Formula, Description: row.Description})
}

func (h *httpHandler) handleDeleteFertilizer(c *gin.Context) {
	h.deleteReference(c, h.farmService.DeleteFertilizer)
}

func (h *httpHandler) handleListPesticides(c *gin.Context) {
	rows, err := h.farmService.ListPesticides(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	payloads := make([]pesticidePayload, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, pesticidePayload{ID: row.ID, Name: row.Name, TargetPest: row.TargetPest, Description: row.Description})
	}
	c.JSON(http.StatusOK, payloads)
}

func (h *httpHandler) handleCreatePesticide(c *gin.Context) {
	var request referenceRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	row, err := h.farmService.CreatePesticide(c.Request.Context(), request.Name, request.TargetPest, request.Description)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pesticidePayload{ID: row.ID, Name: row.Name, TargetPest: row.TargetPest, Description: row.Description})
}

func (h *httpHandler) handleDeletePesticide(c *gin.Context) {
	h.deleteReference(c, h.farmService.DeletePesticide)
}

func (h *httpHandler) deleteReference(c *gin.Context, remove func(ctx context.Context, id string) error) {
	if err := remove(c.Request.Context(), c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
