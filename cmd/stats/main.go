// Command stats prints the dashboard snapshot of the configured database as
// JSON. With -close-idle it first completes conversations that went quiet.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/services"
	"sitepulse/internal/stats"
	"sitepulse/internal/store"
)

func main() {
	closeIdle := flag.Bool("close-idle", false, "complete idle conversations before reporting")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatalf("Failed to resolve timezone: %v", err)
	}

	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	conn := database.GetDB()
	defer func() { _ = database.Close(conn) }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st := store.NewGormStore(conn)
	engine := stats.NewEngine(st,
		stats.WithLocation(loc),
		stats.WithBudgetBrackets(cfg.Dashboard.BudgetBrackets),
	)

	if *closeIdle {
		svc, err := services.NewInteractionService(st, engine, services.Options{
			Timeout:  cfg.Database.Timeout,
			Location: loc,
		})
		if err != nil {
			log.Fatalf("Failed to initialize services: %v", err)
		}
		closed, err := svc.CloseIdleConversations(ctx, cfg.Chat.IdleTimeout)
		if err != nil {
			log.Fatalf("Failed to close idle conversations: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Closed %d idle conversations\n", closed)
	}

	snap, err := engine.Snapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to compute snapshot: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		log.Fatalf("Failed to encode snapshot: %v", err)
	}
}
