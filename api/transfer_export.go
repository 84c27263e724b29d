package api

import (
	"fmt"
	"net/http"

	"driftbox/drive-api/internal/drive"
	"driftbox/drive-api/internal/transfer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TransferExport serves the session's metric history as a CSV download.
func (a *API) TransferExport(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	acc := c.MustGet("account").(*drive.Account)

	sess, ok := a.Transfers.Get(c.Param("id"))
	if !ok || sess.Owner != acc.Username {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Transfer not found",
			"requestID": requestID,
		})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "transfer_"+sess.ID+".csv"))

	if err := transfer.ExportCSV(c.Writer, sess); err != nil {
		zap.L().Error("Failed to export transfer report", zap.Error(err), zap.String("requestID", requestID))
	}
}
