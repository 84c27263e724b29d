package api

import (
	"net/http"
	"slices"
	"strconv"

	"driftbox/drive-api/internal/drive"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AZ = A - Z as in alphabetic same for ZA
var validSortOpts = []string{
	drive.SortNewest, drive.SortOldest,
	drive.SortAZ, drive.SortZA,
	drive.SortSizeAsc, drive.SortSizeDesc,
}

var validLimits = []int{10, 20, 50, 100, 250}

func (a *API) FileFetchBulk(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	acc := c.MustGet("account").(*drive.Account)

	pageStr := c.DefaultQuery("page", "0")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid page provided",
			"requestID": requestID,
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || !slices.Contains(validLimits, limit) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid limit provided",
			"requestID": requestID,
		})
		return
	}

	sortBy := c.DefaultQuery("sort", drive.SortNewest)
	if !slices.Contains(validSortOpts, sortBy) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid sort option provided",
			"requestID": requestID,
		})
		return
	}

	files, err := a.Drive.List(acc, sortBy, page, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list files", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, files)
}
