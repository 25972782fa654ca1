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

	adapterhttp "github.com/savegress/hl7forge/internal/adapter/http"
	"github.com/savegress/hl7forge/internal/config"
	"github.com/savegress/hl7forge/internal/mllp"
	"github.com/savegress/hl7forge/internal/store"
)

func main() {
	log.Println("Starting hl7forge...")

	cfg := loadConfig()

	msgStore := store.New(store.Config{
		MaxMessages: cfg.Store.MaxMessages,
		MaxMemoryMB: cfg.Store.MaxMemoryMB,
	})
	stats := mllp.NewStats()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := mllp.NewListener(msgStore, stats, mllp.HandlerConfig{
		ReadTimeout:    time.Duration(cfg.MLLP.ReadTimeoutSecs) * time.Second,
		WriteTimeout:   time.Duration(cfg.MLLP.WriteTimeoutSecs) * time.Second,
		MaxMessageSize: cfg.MLLP.MaxMessageSizeMB * 1024 * 1024,
	})

	mllpErrCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.MLLP.BindPort)
		mllpErrCh <- listener.Serve(ctx, addr, mllp.DefaultDrainTimeout)
	}()

	webServer := adapterhttp.NewServer(msgStore, stats, cfg.MLLP.BindPort)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.BindPort),
		Handler:      webServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("hl7forge web adapter listening on port %d", cfg.Web.BindPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	log.Printf("hl7forge MLLP listener starting on port %d", cfg.MLLP.BindPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	mllpExited := false
	select {
	case <-quit:
		log.Println("shutdown signal received")
	case err := <-mllpErrCh:
		mllpExited = true
		if err != nil {
			log.Printf("mllp listener exited: %v", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}

	if !mllpExited {
		<-mllpErrCh
	}

	log.Println("hl7forge stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("HL7FORGE_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("failed to load config from %s: %v, using environment/defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
