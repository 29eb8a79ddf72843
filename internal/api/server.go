// Package api serves the minutes store, the pending-task resolver and the
// carryover edit sessions over HTTP.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/minutes/internal/carryover"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB         *gorm.DB
	Port       int
	Out        io.Writer
	SessionTTL time.Duration
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	reg := carryover.NewRegistry(opts.DB, opts.SessionTTL)
	router := NewRouter(opts.DB, reg, opts.Out)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if opts.SessionTTL > 0 {
		go reg.Run(ctx, reapInterval(opts.SessionTTL))
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Minutes API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with every API route registered. Request
// logs go to out when it is non-nil.
func NewRouter(db *gorm.DB, reg *carryover.Registry, out io.Writer) *gin.Engine {
	router := gin.New()
	if out != nil {
		router.Use(gin.LoggerWithWriter(out))
	}
	router.Use(gin.Recovery())
	registerRoutes(router, &handler{
		db:           db,
		sessions:     reg,
		pollInterval: 3 * time.Second,
		heartbeat:    15 * time.Second,
	})
	return router
}

func reapInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Second {
		return d
	}
	return time.Second
}
