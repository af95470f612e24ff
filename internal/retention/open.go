package retention

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"flowpulse/internal/config"
)

// OpenBackend builds the backend selected by the storage configuration
func OpenBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return NewMemoryBackend(), nil
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		return NewSQLiteBackend(cfg.SQLitePath)
	case config.BackendPostgres, config.BackendMySQL:
		return OpenGormBackend(cfg.Backend, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
