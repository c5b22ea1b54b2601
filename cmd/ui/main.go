package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/refdata"
	"trade-journal-go/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Open the trade store
	st, err := store.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open trade store", zap.Error(err))
	}

	// Contract reference
	ref := refdata.NewReference(log)
	if gs, ok := st.(*store.GormStore); ok {
		if err := ref.SyncDatabase(gs.DB()); err != nil {
			log.Warn("Failed to sync contract reference table", zap.Error(err))
		}
	}
	if cfg.Refdata.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		refdata.Refresh(ctx, refdata.NewClient(&cfg.Refdata, log), ref, log)
		cancel()
	}

	svc := journal.NewService(&cfg, st, ref, log)

	// Setup HTTP server
	mux := http.NewServeMux()

	// Create a handler that has access to the logger and the journal service
	apiHandler := NewAPIHandler(log, svc)

	// API endpoints
	mux.HandleFunc("/api/import", apiHandler.ImportHandler)
	mux.HandleFunc("/api/trades", apiHandler.TradesHandler)
	mux.HandleFunc("/api/trades/", apiHandler.TradeByIDHandler)
	mux.HandleFunc("/api/reconcile", apiHandler.ReconcileHandler)
	mux.HandleFunc("/api/metrics", apiHandler.MetricsHandler)
	mux.HandleFunc("/api/calendar", apiHandler.CalendarHandler)
	mux.HandleFunc("/api/washsales", apiHandler.WashSalesHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
