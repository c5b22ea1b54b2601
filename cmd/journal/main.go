package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
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
	configPath := flag.String("config", "./configs", "directory containing config.yml")
	importPath := flag.String("import", "", "broker export file to import")
	runReconcile := flag.Bool("reconcile", false, "run a manual reconciliation pass")
	showMetrics := flag.Bool("metrics", false, "print performance metrics")
	flag.Parse()

	// Load application configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Open the trade store (sqlite, falling back to the flat file)
	st, err := store.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open trade store", zap.Error(err))
	}

	// Contract reference: seed table, persisted when sqlite is active,
	// optionally refreshed from a remote endpoint.
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

	if *importPath != "" {
		raw, err := os.ReadFile(*importPath)
		if err != nil {
			log.Fatal("Failed to read import file", zap.String("path", *importPath), zap.Error(err))
		}
		res, err := svc.ImportFromText(string(raw))
		if err != nil {
			log.Fatal("Import rejected", zap.Error(err))
		}
		log.Info("Import finished",
			zap.Int("imported", res.Imported),
			zap.Int("errors", res.Errors))
		for _, d := range res.ErrorDetails {
			log.Warn("Import row skipped", zap.String("detail", d))
		}
	}

	if *runReconcile {
		res, err := svc.RunReconciliation()
		if err != nil {
			log.Fatal("Reconciliation failed", zap.Error(err))
		}
		log.Info("Reconciliation finished",
			zap.Int("matches", res.Matches),
			zap.Bool("cap_hit", res.CapHit))
	}

	if *showMetrics {
		m, err := svc.PerformanceMetrics(nil, nil)
		if err != nil {
			log.Fatal("Failed to compute metrics", zap.Error(err))
		}
		out, _ := json.MarshalIndent(m, "", "  ")
		fmt.Println(string(out))
	}

	if *importPath == "" && !*runReconcile && !*showMetrics {
		flag.Usage()
	}
}
