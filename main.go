package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bedquiltdb/bedquilt/config"
	"github.com/bedquiltdb/bedquilt/engine"
	"github.com/bedquiltdb/bedquilt/server"
	"github.com/bedquiltdb/bedquilt/store"
	"github.com/bedquiltdb/bedquilt/tools"
)

func logStartupInfo() {
	fmt.Println("=== bedquilt ===")
	fmt.Printf("Port:            %s\n", config.Cfg.Port)
	fmt.Printf("Database:        %s\n", config.Cfg.PrimaryDBPath)
	fmt.Printf("Request timeout: %s\n", config.Cfg.RequestTimeout)
	fmt.Printf("Pagination:      %d default, %d max\n", config.Cfg.DefaultLimit, config.Cfg.MaxLimit)

	if config.Cfg.APIKey == "" {
		fmt.Println("[WARN] No API key set - authentication disabled")
	} else {
		fmt.Println("[OK]   Authentication enabled")
	}
	if len(config.Cfg.CORSOrigins) == 0 {
		fmt.Println("[INFO] CORS disabled (no origins configured)")
	} else {
		fmt.Printf("[OK]   CORS origins: %v\n", config.Cfg.CORSOrigins)
	}
	fmt.Println()
}

func main() {
	logStartupInfo()

	if err := os.MkdirAll(config.Cfg.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	dbPath := config.Cfg.PrimaryDBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(config.Cfg.DataDir, filepath.Base(dbPath))
	}

	st, err := store.Open(context.Background(), dbPath)
	if err != nil {
		log.Fatalf("failed to open primary database: %v", err)
	}
	e := engine.New(st)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux, e)
	handler := tools.Chain(mux)

	httpServer := &http.Server{
		Addr:    config.Cfg.Port,
		Handler: handler,
	}

	go func() {
		fmt.Printf("Listening on %s\n", config.Cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := st.Close(); err != nil {
		log.Printf("error closing database: %v", err)
	}

	fmt.Println("Server stopped")
}
