package api

import (
	"errors"
	"io"
	"net/http"

	"driftbox/drive-api/internal/drive"
	"driftbox/drive-api/internal/metrics"
	"driftbox/drive-api/internal/transfer"
	"driftbox/drive-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileUpload starts a simulated chunked transfer for the uploaded file. The
// durable write happens exactly once, when the simulation reaches 100%. By
// default the handler responds immediately with the transfer ID; pass
// ?wait=1 to block until the transfer finishes.
func (a *API) FileUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	acc := c.MustGet("account").(*drive.Account)

	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open multipart file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read multipart file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	code, mime, err := validators.FileValidator(fh.Filename, content)
	if err != nil {
		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	sess := transfer.NewSession(fh.Filename, int64(len(content)))
	sess.Owner = acc.Username
	a.Transfers.Add(sess)

	var meta *drive.FileMetadata

	commit := func() error {
		m, err := a.Drive.Upload(acc, fh.Filename, mime, content)
		if err != nil {
			return err
		}

		meta = m
		metrics.TransferredBytes.Add(float64(m.Size))

		return nil
	}

	metrics.TransfersStarted.Inc()
	metrics.ActiveTransfers.Inc()

	go func() {
		defer metrics.ActiveTransfers.Dec()

		if err := a.Simulator.Run(a.ctx, sess, commit); err != nil {
			metrics.TransfersFinished.WithLabelValues("failed").Inc()
			return
		}

		metrics.TransfersFinished.WithLabelValues("succeeded").Inc()
	}()

	if c.Query("wait") != "1" {
		c.JSON(http.StatusAccepted, gin.H{
			"transferID": sess.ID,
		})
		return
	}

	if err := sess.Wait(); err != nil {
		if errors.Is(err, drive.ErrQuotaExceeded) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":      "Not enough space",
				"transferID": sess.ID,
				"requestID":  requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"transferID": sess.ID,
			"requestID":  requestID,
		})

		zap.L().Error("Transfer failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transferID": sess.ID,
		"file":       meta,
	})
}
