package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/delegate/internal/domain"
)

// ImportResult reports the outcome of ImportState. Error is empty on
// success.
type ImportResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// requiredImportKeys must be present and non-null in an import document.
var requiredImportKeys = []string{"company", "projects", "users"}

// ExportState returns a deep copy of the state without the demo settings.
func (s *Store) ExportState() (*domain.State, error) {
	st, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	st.DemoMode = false
	st.ResetOnRefresh = false
	return st, nil
}

// ExportJSON renders ExportState as indented JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	st, err := s.ExportState()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export state: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseImport decodes and validates an import document without touching
// the store.
func ParseImport(data []byte) (*domain.State, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, invalidf("import is not a JSON object: %v", err)
	}
	for _, key := range requiredImportKeys {
		raw, ok := probe[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, invalidf("import is missing required field %q", key)
		}
	}
	var st domain.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, invalidf("import has an unexpected shape: %v", err)
	}
	st.DemoMode = false
	st.ResetOnRefresh = false
	st.Normalize()
	return &st, nil
}

// ImportState replaces every collection with the document's. Collections
// the document omits become empty and the demo settings are kept. On a
// validation failure the state is left untouched.
func (s *Store) ImportState(ctx context.Context, data []byte) ImportResult {
	incoming, err := ParseImport(data)
	if err != nil {
		_ = s.observe(ctx, "ImportState", nil, func() error { return err })
		return ImportResult{Error: err.Error()}
	}
	err = s.mutate(ctx, "ImportState", map[string]any{"projects": len(incoming.Projects)}, func(st *domain.State) error {
		incoming.DemoMode = st.DemoMode
		incoming.ResetOnRefresh = st.ResetOnRefresh
		*st = *incoming
		return nil
	})
	if err != nil {
		return ImportResult{Error: err.Error()}
	}
	return ImportResult{Success: true}
}

// Reset replaces the state with the store's seed.
func (s *Store) Reset(ctx context.Context) error {
	return s.ResetToSeed(ctx, s.seed)
}

// ResetToSeed replaces the state with seed's and clears the session marker.
// The demo settings are kept.
func (s *Store) ResetToSeed(ctx context.Context, seed SeedSource) error {
	fresh, err := seed.Load(ctx)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	return s.mutateWith(ctx, "ResetToSeed", nil, func(st *domain.State) error {
		fresh.DemoMode = st.DemoMode
		fresh.ResetOnRefresh = st.ResetOnRefresh
		fresh.Normalize()
		*st = *fresh
		return nil
	}, s.repo.SaveAndClearSession)
}
