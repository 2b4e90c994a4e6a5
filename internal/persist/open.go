package persist

import (
	"context"
	"fmt"

	"github.com/alexanderramin/delegate/internal/config"
)

// OpenBackend builds the backend named by cfg.Backend.
func OpenBackend(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return OpenSQLite(cfg.DBPath)
	case config.BackendFile:
		return NewFileBackend(cfg.DataDir)
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case config.BackendS3:
		return NewS3Backend(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
