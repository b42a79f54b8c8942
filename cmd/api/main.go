package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/jobs"
	"sitepulse/internal/server"
	"sitepulse/internal/services"
	"sitepulse/internal/stats"
	"sitepulse/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatalf("Failed to resolve timezone: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s, timezone=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host, loc)

	log.Println("Initializing database connection...")
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	conn := database.GetDB()
	defer func() {
		log.Println("Closing database connections...")
		if err := database.Close(conn); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	log.Println("Initializing services...")
	st := store.NewGormStore(conn)
	engine := stats.NewEngine(st,
		stats.WithLocation(loc),
		stats.WithBudgetBrackets(cfg.Dashboard.BudgetBrackets),
	)
	svc, err := services.NewInteractionService(st, engine, services.Options{
		Timeout:  cfg.Database.Timeout,
		Location: loc,
		Notifier: services.NewEmailService(&cfg.Email),
	})
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	healthSvc := services.NewHealthService(st, cfg.App.Name, cfg.App.Version)

	scheduler, err := jobs.NewScheduler(svc, jobs.Config{
		Location:      loc,
		IdleTimeout:   cfg.Chat.IdleTimeout,
		SweepInterval: cfg.Chat.SweepInterval,
		PoolStats:     func() (*sql.DBStats, error) { return database.GetStats(conn) },
	})
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	scheduler.Start()

	log.Println("Mounting HTTP handlers...")
	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.New(cfg, svc, healthSvc).Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Printf("Server failed to start: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Println("Shutdown timeout exceeded, forcing close...")
			_ = httpServer.Close()
		}
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Error stopping scheduler: %v", err)
	}

	log.Println("Server shutdown complete")
}
