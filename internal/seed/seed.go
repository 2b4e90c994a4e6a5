// Package seed builds an initial State from a manifest plus one JSON file
// per collection.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/delegate/internal/domain"
)

// ErrSeedLoad is returned when the manifest or a listed file cannot be used.
var ErrSeedLoad = errors.New("seed load failed")

// ManifestFile is the name of the manifest at the root of a seed directory.
const ManifestFile = "manifest.json"

//go:embed data/*.json
var embedded embed.FS

// Manifest maps a collection name (the State JSON key) to a file name.
type Manifest struct {
	Files map[string]string `json:"files"`
}

// Loader reads seed data from a filesystem.
type Loader struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewLoader reads from fsys. A nil logger discards output.
func NewLoader(fsys fs.FS, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{fsys: fsys, logger: logger}
}

// Default returns a loader over the seed compiled into the binary.
func Default(logger *slog.Logger) *Loader {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(fmt.Sprintf("embedded seed: %v", err))
	}
	return NewLoader(sub, logger)
}

// FromDir returns the loader for dir, or Default when dir is empty.
func FromDir(dir string, logger *slog.Logger) *Loader {
	if dir == "" {
		return Default(logger)
	}
	return NewLoader(os.DirFS(dir), logger)
}

// Load reads every file listed in the manifest concurrently and assembles
// the State. Missing files leave their collection empty; unreadable or
// malformed files fail the whole load.
func (l *Loader) Load(ctx context.Context) (*domain.State, error) {
	raw, err := fs.ReadFile(l.fsys, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrSeedLoad, ManifestFile, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrSeedLoad, ManifestFile, err)
	}

	var mu sync.Mutex
	collections := make(map[string]json.RawMessage, len(manifest.Files))

	g, gctx := errgroup.WithContext(ctx)
	for name, file := range manifest.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(l.fsys, file)
			if errors.Is(err, fs.ErrNotExist) {
				l.logger.DebugContext(gctx, "seed file missing, collection left empty", "collection", name, "file", file)
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: reading %s: %v", ErrSeedLoad, file, err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("%w: %s is not valid JSON", ErrSeedLoad, file)
			}
			mu.Lock()
			collections[name] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, err := json.Marshal(collections)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedLoad, err)
	}
	var st domain.State
	if err := json.Unmarshal(merged, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedLoad, err)
	}
	st.DemoMode = false
	st.ResetOnRefresh = false
	st.Normalize()

	l.logger.DebugContext(ctx, "seed loaded", "collections", len(collections))
	return &st, nil
}
