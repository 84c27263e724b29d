package api

import (
	"net/http"

	"driftbox/drive-api/internal/metrics"

	"github.com/gin-gonic/gin"
)

func (a *API) MonitorStart(c *gin.Context) {
	a.Monitor.Start(a.ctx)
	metrics.MonitorRunning.Set(1)

	c.Status(http.StatusOK)
}

func (a *API) MonitorStop(c *gin.Context) {
	a.Monitor.Stop()
	metrics.MonitorRunning.Set(0)

	c.Status(http.StatusOK)
}

func (a *API) MonitorSamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running": a.Monitor.Running(),
		"samples": a.Monitor.Samples(),
	})
}
