package store

import (
	"go.uber.org/zap"

	"trade-journal-go/internal/config"
)

// Open returns the trade store. The sqlite backend is tried first; any
// initialization failure falls back to the flat-file backend transparently,
// so callers only ever see the Store interface.
func Open(cfg *config.Database, log *zap.Logger) (Store, error) {
	gs, err := NewGormStore(cfg.DSN)
	if err == nil {
		log.Info("Trade store ready", zap.String("backend", "sqlite"), zap.String("dsn", cfg.DSN))
		return gs, nil
	}

	log.Warn("Primary trade store failed to initialize, falling back to flat file",
		zap.String("dsn", cfg.DSN),
		zap.String("fallback", cfg.FallbackPath),
		zap.Error(err))

	fs, ferr := NewFileStore(cfg.FallbackPath, log)
	if ferr != nil {
		return nil, ferr
	}
	log.Info("Trade store ready", zap.String("backend", "file"), zap.String("path", cfg.FallbackPath))
	return fs, nil
}
