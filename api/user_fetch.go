package api

import (
	"net/http"

	"driftbox/drive-api/internal/drive"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserFetch returns the current account, its storage gauge and the 10 most
// recent files. This is used when initially loading the dashboard
func (a *API) UserFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	acc := c.MustGet("account").(*drive.Account)

	storage, err := a.Drive.Storage(acc)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load storage record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	recent, err := a.Drive.List(acc, drive.SortNewest, 0, 10)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch initial user data", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	usedPercent := float64(0)
	if storage.CapacityBytes > 0 {
		usedPercent = 100 * float64(storage.UsedBytes) / float64(storage.CapacityBytes)
	}

	c.JSON(http.StatusOK, gin.H{
		"username": acc.Username,
		"files":    recent,
		"stats": gin.H{
			"used_bytes":     storage.UsedBytes,
			"capacity_bytes": storage.CapacityBytes,
			"used":           humanize.IBytes(uint64(storage.UsedBytes)),
			"capacity":       humanize.IBytes(uint64(storage.CapacityBytes)),
			"used_percent":   usedPercent,
			"file_count":     len(storage.Files),
		},
	})
}
