package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/pondermatic/strategy11-challenge/docs/swagger"
	"github.com/pondermatic/strategy11-challenge/src/app"
	"github.com/rs/zerolog"
)

// @contact.name   Pondermatic
// @contact.url    https://www.pondermatic.com

// @license.name  GPL-2.0-or-later

// @host      localhost:8080
// @BasePath  /pondermatic-strategy11/v1

// @securityDefinitions.apikey  APISecret
// @in                          header
// @name                        X-API-Secret

const (
	AppName    = "Strategy11 Challenge"
	AppVersion = "1.0.0"
)

func main() {
	// Load .env file if it exists (optional in production)
	if err := app.LoadEnvFile(".env"); err != nil {
		log.Fatal(err)
	}

	config, err := app.NewAppConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Update swagger info dynamically using constants
	swagger.SwaggerInfo.Title = AppName + " API"
	swagger.SwaggerInfo.Version = AppVersion
	swagger.SwaggerInfo.Description = fmt.Sprintf("%s: cached and validated access to the Strategy11 challenge data", AppName)
	swagger.SwaggerInfo.Host = *config.Host
	swagger.SwaggerInfo.BasePath = "/" + *config.RouteNamespace

	// Create root logger
	logger := app.InitLogger(*config.LogLevel)

	// Create root context
	rootCtx, rootCancel := context.WithCancel(context.Background())
	rootCtx = logger.WithContext(rootCtx)

	logger.Info().
		Str("version", AppVersion).
		Str("environment", *config.Environment).
		Msgf("Launching %s", AppName)

	// Build swagger URL based on environment and host config
	scheme := "https"
	if config.IsDevelopment() {
		scheme = "http"
	}
	logger.Info().
		Str("swagger_link", scheme+"://"+*config.Host+"/swagger/index.html").
		Msg("Swagger link")

	// ================================
	// Start application
	// ================================

	application, err := app.NewApplication(rootCtx, *config)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		rootCancel()
		os.Exit(1)
	}

	wg := sync.WaitGroup{}

	wg.Add(1)
	go application.RunHTTPServer(rootCtx, &wg)

	wg.Add(1)
	go application.RunCacheWarmer(rootCtx, &wg)

	if config.IsDevelopment() {
		wg.Add(1)
		go runSystemStatsLogger(rootCtx, &wg, logger)

		wg.Add(1)
		go runPprofServer(rootCtx, &wg, logger)
	}
	// ================================

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Cancel root context to signal all workers to stop
	rootCancel()

	// Wait for all workers to complete with timeout
	waitChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		logger.Info().Msg("All workers shut down gracefully")
	case <-time.After(15 * time.Second):
		logger.Error().Msg("Timeout waiting for workers to shut down")
	}

	// Shutdown application
	application.Shutdown(rootCtx)

	logger.Info().Msg("Application shutdown complete")
}

// runPprofServer starts a debug server with pprof endpoints
func runPprofServer(ctx context.Context, wg *sync.WaitGroup, logger zerolog.Logger) {
	defer wg.Done()

	// The default mux has the pprof endpoints registered
	server := &http.Server{
		Addr:              ":6060",
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Msg("pprof server is running on http://localhost:6060/debug/pprof/")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Failed to start pprof server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown pprof server gracefully")
	} else {
		logger.Info().Msg("pprof server shutdown complete")
	}
}

// runSystemStatsLogger logs memory and GC statistics once a minute
func runSystemStatsLogger(ctx context.Context, wg *sync.WaitGroup, logger zerolog.Logger) {
	defer wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("System stats logger shutting down")
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			var gcStats debug.GCStats
			debug.ReadGCStats(&gcStats)

			logger.Debug().
				Uint64("heap_mb", m.HeapInuse/1024/1024).
				Uint64("sys_mb", m.Sys/1024/1024).
				Int("goroutines", runtime.NumGoroutine()).
				Int64("gc_num", gcStats.NumGC).
				Dur("gc_pause_total", gcStats.PauseTotal).
				Msg("System stats")
		}
	}
}
