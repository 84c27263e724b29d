// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"os"
	"time"

	"driftbox/drive-api/config"
	"driftbox/drive-api/internal/drive"
	"driftbox/drive-api/internal/kv"
	"driftbox/drive-api/internal/transfer"
	"driftbox/drive-api/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	Drive     *drive.Drive
	Router    *gin.Engine
	Transfers *transfer.Registry
	Simulator *transfer.Simulator
	Monitor   *transfer.Monitor

	durable kv.Store
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRouter() (*API, error) {
	makeLogger()

	ctx, cancel := context.WithCancel(context.Background())

	a := &API{
		Transfers: transfer.NewRegistry(),
		Monitor:   transfer.NewMonitor(),
		ctx:       ctx,
		cancel:    cancel,
	}

	durable, err := openStore()
	if err != nil {
		cancel()
		return nil, err
	}
	a.durable = durable

	a.Drive = drive.New(durable, kv.NewMem(), viper.GetInt64("storage.max_usage"))

	// Runs before any upload is in flight, which is the only safe window.
	if n, err := a.Drive.SweepOrphans(); err != nil {
		zap.L().Error("Failed to sweep orphaned payloads", zap.Error(err))
	} else if n > 0 {
		zap.L().Warn("Swept orphaned payloads", zap.Int("count", n))
	}

	a.Simulator = &transfer.Simulator{
		MinDelay: time.Duration(viper.GetInt("transfer.min_delay_ms")) * time.Millisecond,
		MaxDelay: time.Duration(viper.GetInt("transfer.max_delay_ms")) * time.Millisecond,
	}

	transfer.SessionCleanup(ctx, a.Transfers, time.Minute, time.Duration(viper.GetInt("transfer.retention_s"))*time.Second)

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	a.Router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware(a.Drive)
	maxUploadSize := viper.GetInt64("upload.max_size")

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a JWT token
		main.HEAD("/validate", jwt, a.Validate)
	}

	authLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             10,
	})

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/users		-> Returns the current account and its storage stats
		users.GET("", jwt, a.UserFetch)

		// POST /api/users 		-> Registers a new account
		users.POST("", authLimiter, a.UserRegister)

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		users.POST("/login", authLimiter, a.UserLogin)

		// POST /api/users/logout 	-> Revokes the current session
		users.POST("/logout", jwt, a.UserLogout)
	}

	files := main.Group("/files", jwt)
	{
		// GET /api/files/bulk 		-> Returns a user's files in bulk
		files.GET("/bulk", a.FileFetchBulk)

		// GET /api/files/search	-> Searches a user's files by name
		files.GET("/search", a.FileSearch)

		// POST /api/files         	-> Starts a simulated transfer that commits the file on completion
		files.POST("", middleware.BodySizeLimiter(maxUploadSize), a.FileUpload)

		// GET /api/files/:id 		-> Downloads a file
		files.GET("/:id", a.FileDownload)

		// DELETE /api/files/:id	-> Deletes a file owned by a user
		files.DELETE("/:id", a.FileDelete)
	}

	transfers := main.Group("/transfers", jwt)
	{
		// GET /api/transfers/:id		-> Returns the progress of a transfer
		transfers.GET("/:id", a.TransferProgress)

		// GET /api/transfers/:id/export	-> Exports the metric history as CSV
		transfers.GET("/:id/export", a.TransferExport)
	}

	monitor := main.Group("/monitor", jwt)
	{
		// POST /api/monitor	-> Starts the ambient throughput monitor
		monitor.POST("", a.MonitorStart)

		// DELETE /api/monitor	-> Stops the monitor
		monitor.DELETE("", a.MonitorStop)

		// GET /api/monitor	-> Returns the retained samples
		monitor.GET("", cacheFor(1), a.MonitorSamples)
	}

	return a, nil
}

// Close stops background samplers and transfers and closes the store.
func (a *API) Close() error {
	a.cancel()
	a.Monitor.Stop()

	return a.durable.Close()
}

func openStore() (kv.Store, error) {
	path := viper.GetString("storage.path")

	if config.ResetStore() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to reset store, %w", err)
		}

		zap.L().Warn("Durable store wiped", zap.String("path", path))
	}

	switch viper.GetString("storage.backend") {
	case "bolt":
		return kv.NewBolt(path)
	default:
		return kv.NewGorm(path)
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
