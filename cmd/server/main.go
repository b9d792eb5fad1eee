package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ytclip-server/internal/api"
	"ytclip-server/internal/auth"
	"ytclip-server/internal/clipper"
	"ytclip-server/internal/config"
	"ytclip-server/internal/downloader"
	"ytclip-server/internal/jobs"
	"ytclip-server/internal/proxy"
	"ytclip-server/internal/retry"
	"ytclip-server/internal/server"
	"ytclip-server/internal/videoinfo"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	// 1. Hazırlık: Dosya sistemi
	if err := server.PrepareFilesystem(cfg); err != nil {
		log.Fatalf(">>> ❌ Error preparing filesystem: %v", err)
	}

	// 2. Servisler
	selector := proxy.NewSelector(cfg.ProxyOverride)
	engine := downloader.NewEngine(selector, retry.Policy{
		MaxAttempts: cfg.MaxDownloadAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	})
	tracker := jobs.NewTracker()
	orchestrator := jobs.NewOrchestrator(cfg, engine, clipper.New(), tracker)
	authSvc := auth.NewService(cfg)
	handler := api.NewHandler(cfg, orchestrator, videoinfo.NewService())

	// 3. Router ve janitor
	router := api.NewRouter(handler, authSvc)
	jobs.StartJanitor(cfg, tracker)

	// Startup tool check, advisory only
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := engine.CheckAvailable(ctx); err != nil {
		log.Println(">>> ⚠️ yt-dlp not found. Install it first: pip install yt-dlp")
	} else {
		log.Println(">>> ✅ yt-dlp is available")
	}
	cancel()

	// No WriteTimeout: clip responses stream for as long as the
	// download takes.
	srv := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		fmt.Println(">>> 🎬 YT Clip Server Started")
		fmt.Printf(">>> ⚡ Port: %s\n", cfg.Port)
		if !cfg.OAuthConfigured() {
			fmt.Println(">>> ⚠️ OAuth not configured; protected endpoints will reject all callers")
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 4. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
