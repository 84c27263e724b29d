package api

import (
	"net/http"

	"driftbox/drive-api/internal/drive"

	"github.com/gin-gonic/gin"
)

func (a *API) TransferProgress(c *gin.Context) {
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

	completed, succeeded, err := sess.Status()

	resp := gin.H{
		"transferID": sess.ID,
		"fileName":   sess.FileName,
		"fileSize":   sess.FileSize,
		"startedAt":  sess.StartedAt,
		"completed":  completed,
		"succeeded":  succeeded,
	}

	if err != nil {
		resp["error"] = err.Error()
	}

	if latest, ok := sess.Latest(); ok {
		resp["latest"] = latest
	}

	c.JSON(http.StatusOK, resp)
}
