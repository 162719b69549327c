package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

type createTreeRequestPayload struct {
	Variety       string   `json:"variety"`
	PlantedDate   string   `json:"planted_date"`
	TreeHeight    *float64 `json:"tree_height"`
	TrunkDiameter *float64 `json:"trunk_diameter"`
}

type updateTreeRequestPayload struct {
	Variety        *string  `json:"variety"`
	Status         *string  `json:"status"`
	BloomingStatus *string  `json:"blooming_status"`
	TreeHeight     *float64 `json:"tree_height"`
	TrunkDiameter  *float64 `json:"trunk_diameter"`
	FlowerDate     *string  `json:"flower_date"`
}

type adjustFruitCountPayload struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

func (h *httpHandler) handleCreateTree(c *gin.Context) {
	var request createTreeRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	var plantedDate time.Time
	if request.PlantedDate != "" {
		parsed, err := parseDate(request.PlantedDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_planted_date"})
			return
		}
		plantedDate = parsed
	}

	sectionID := c.Param("id")
	tree, err := h.farmService.CreateTree(c.Request.Context(), sectionID, farm.CreateTreeInput{
		Variety:       request.Variety,
		PlantedDate:   plantedDate,
		TreeHeight:    request.TreeHeight,
		TrunkDiameter: request.TrunkDiameter,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.publishTreeEvent(EventTreeChanged, h.plotCodeForSection(c, sectionID), tree.TreeCode)
	c.JSON(http.StatusCreated, toTreePayload(*tree))
}

func (h *httpHandler) handleNextTreeCode(c *gin.Context) {
	code, err := h.farmService.GenerateTreeCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tree_code": code})
}

func (h *httpHandler) handleListTrees(c *gin.Context) {
	trees, err := h.farmService.ListTrees(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTreePayloads(trees))
}

func (h *httpHandler) handleGetTree(c *gin.Context) {
	tree, err := h.farmService.GetTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTreePayload(*tree))
}

func (h *httpHandler) handleUpdateTree(c *gin.Context) {
	var request updateTreeRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	input := farm.UpdateTreeInput{
		Variety:       request.Variety,
		TreeHeight:    request.TreeHeight,
		TrunkDiameter: request.TrunkDiameter,
	}
	if request.Status != nil {
		status, err := farm.NewTreeStatus(*request.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
			return
		}
		input.Status = &status
	}
	if request.BloomingStatus != nil {
		blooming, err := farm.NewBloomingStatus(*request.BloomingStatus)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_blooming_status"})
			return
		}
		input.BloomingStatus = &blooming
	}
	if request.FlowerDate != nil {
		flowerDate, err := parseDate(*request.FlowerDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_flower_date"})
			return
		}
		input.FlowerDate = &flowerDate
	}

	tree, err := h.farmService.UpdateTree(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.publishTreeEvent(EventTreeChanged, h.plotCodeForSection(c, tree.SectionID), tree.TreeCode)
	c.JSON(http.StatusOK, toTreePayload(*tree))
}

func (h *httpHandler) handleRegrowTree(c *gin.Context) {
	tree, err := h.farmService.RegrowTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.publishTreeEvent(EventTreeChanged, h.plotCodeForSection(c, tree.SectionID), tree.TreeCode)
	c.JSON(http.StatusCreated, toTreePayload(*tree))
}

func (h *httpHandler) handleAdjustFruitCount(c *gin.Context) {
	var request adjustFruitCountPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	tree, err := h.farmService.AdjustFruitCount(c.Request.Context(), c.Param("id"), request.Delta, request.Reason)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context(), tree.ID)
	h.publishTreeEvent(EventLogChanged, h.plotCodeForSection(c, tree.SectionID), tree.TreeCode)
	c.JSON(http.StatusOK, toTreePayload(*tree))
}

func (h *httpHandler) handleDeleteTree(c *gin.Context) {
	tree, err := h.farmService.GetTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if err := h.farmService.DeleteTree(c.Request.Context(), tree.ID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context(), tree.ID)
	h.publishTreeEvent(EventTreeChanged, h.plotCodeForSection(c, tree.SectionID), tree.TreeCode)
	c.Status(http.StatusNoContent)
}
