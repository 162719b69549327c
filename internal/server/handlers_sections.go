package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

type sectionRequestPayload struct {
	Name        string `json:"name"`
	AreaRai     string `json:"area_rai"`
	SoilType    string `json:"soil_type"`
	Description string `json:"description"`
}

func (h *httpHandler) handleCreateSection(c *gin.Context) {
	var request sectionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	areaRai, err := parseOptionalDecimal(request.AreaRai)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_area"})
		return
	}

	section, err := h.farmService.CreateSection(c.Request.Context(), c.Param("id"), farm.CreateSectionInput{
		Name:        request.Name,
		AreaRai:     areaRai,
		SoilType:    request.SoilType,
		Description: request.Description,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSectionPayload(*section))
}

func (h *httpHandler) handleNextSectionCode(c *gin.Context) {
	code, err := h.farmService.GenerateSectionCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"section_code": code})
}

func (h *httpHandler) handleListSections(c *gin.Context) {
	sections, err := h.farmService.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSectionPayloads(sections))
}

func (h *httpHandler) handleGetSection(c *gin.Context) {
	section, err := h.farmService.GetSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSectionPayload(*section))
}

func (h *httpHandler) handleUpdateSection(c *gin.Context) {
	var request sectionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	areaRai, err := parseOptionalDecimal(request.AreaRai)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_area"})
		return
	}

	section, err := h.farmService.UpdateSection(c.Request.Context(), c.Param("id"), farm.UpdateSectionInput{
		Name:        request.Name,
		AreaRai:     areaRai,
		SoilType:    request.SoilType,
		Description: request.Description,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSectionPayload(*section))
}

func (h *httpHandler) handleDeleteSection(c *gin.Context) {
	if err := h.farmService.DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
