package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
	"github.com/banrai-farm/duriantrack/backend/internal/photos"
)

const maxPhotoBytes = 10 << 20

// handleAddTreeLog accepts multipart form data so a photo can ride along with
// the log fields. The photo is optional; without object storage configured a
// request carrying one is rejected.
func (h *httpHandler) handleAddTreeLog(c *gin.Context) {
	treeID := c.Param("id")
	tree, err := h.farmService.GetTree(c.Request.Context(), treeID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	var logDate time.Time
	if raw := c.PostForm("log_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_log_date"})
			return
		}
		logDate = parsed
	}

	imagePath := ""
	if file, err := c.FormFile("photo"); err == nil {
		if file.Size > maxPhotoBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "photo_too_large"})
			return
		}
		reader, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_photo"})
			return
		}
		defer reader.Close()

		objectKey, err := h.photos.Upload(c.Request.Context(), tree.TreeCode, file.Filename,
			reader, file.Size, file.Header.Get("Content-Type"))
		if err != nil {
			if errors.Is(err, photos.ErrStorageUnconfigured) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "storage_unconfigured"})
				return
			}
			h.logger.Error("photo upload failed", zap.String("tree_code", tree.TreeCode), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "photo_upload_failed"})
			return
		}
		imagePath = objectKey
	}

	entry, err := h.farmService.AddTreeLog(c.Request.Context(), treeID, farm.AddTreeLogInput{
		LogDate:        logDate,
		ActivityType:   c.PostForm("activity_type"),
		HealthStatus:   c.PostForm("health_status"),
		FertilizerType: c.PostForm("fertilizer_type"),
		Notes:          c.PostForm("notes"),
		ImagePath:      imagePath,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.cache.Invalidate(c.Request.Context(), treeID)
	h.publishTreeEvent(EventLogChanged, h.plotCodeForSection(c, tree.SectionID), tree.TreeCode)
	c.JSON(http.StatusCreated, toTreeLogPayload(*entry))
}

func (h *httpHandler) handleListTreeLogs(c *gin.Context) {
	entries, err := h.farmService.ListTreeLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTreeLogPayloads(entries))
}

// handleTreeLogPhoto redirects to a short-lived presigned URL for the log's
// stored photo.
func (h *httpHandler) handleTreeLogPhoto(c *gin.Context) {
	entry, err := h.farmService.GetTreeLog(c.Request.Context(), c.Param("id"), c.Param("logID"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if entry.ImagePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_photo"})
		return
	}

	url, err := h.photos.PresignedURL(c.Request.Context(), entry.ImagePath)
	if err != nil {
		if errors.Is(err, photos.ErrStorageUnconfigured) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "storage_unconfigured"})
			return
		}
		h.logger.Error("presign failed", zap.String("object_key", entry.ImagePath), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign_failed"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}
