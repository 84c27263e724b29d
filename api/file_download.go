package api

import (
	"errors"
	"fmt"
	"net/http"

	"driftbox/drive-api/internal/drive"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) FileDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	acc := c.MustGet("account").(*drive.Account)

	fileID := c.Param("id")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "ID is missing",
			"requestID": requestID,
		})
		return
	}

	meta, content, err := a.Drive.Download(acc, fileID)
	if err != nil {
		if errors.Is(err, drive.ErrFileNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "File not found. It either doesn't exist or you don't own it",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to download file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))
	c.Data(http.StatusOK, meta.MimeType, content)
}
