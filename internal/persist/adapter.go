package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alexanderramin/delegate/internal/domain"
)

// Storage keys. The version suffix is bumped instead of migrating data.
const (
	KeyAppState    = "delegate.appState.v1"
	KeyDemoState   = "delegate.demoState.v1"
	KeySession     = "delegate.session.v1"
	KeyDemoSession = "delegate.demoSession.v1"
)

// Mode selects which pair of keys the adapter reads and writes.
type Mode int

const (
	ModeNormal Mode = iota
	ModeDemo
)

func (m Mode) String() string {
	if m == ModeDemo {
		return "demo"
	}
	return "normal"
}

// StateKey returns the state key for the mode.
func (m Mode) StateKey() string {
	if m == ModeDemo {
		return KeyDemoState
	}
	return KeyAppState
}

// SessionKey returns the session marker key for the mode.
func (m Mode) SessionKey() string {
	if m == ModeDemo {
		return KeyDemoSession
	}
	return KeySession
}

// Adapter serializes State and SessionMarker onto a Backend.
type Adapter struct {
	backend Backend
	logger  *slog.Logger

	mu   sync.RWMutex
	mode Mode
}

// NewAdapter returns an adapter in mode. A nil logger discards output.
func NewAdapter(backend Backend, mode Mode, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{backend: backend, mode: mode, logger: logger}
}

func (a *Adapter) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// SetMode switches the keys used by subsequent calls.
func (a *Adapter) SetMode(m Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = m
}

// Backend exposes the underlying store.
func (a *Adapter) Backend() Backend { return a.backend }

// Load reads the state for the current mode. ok is false when nothing is
// stored or the stored blob does not parse; the caller falls back to seed.
func (a *Adapter) Load(ctx context.Context) (*domain.State, bool, error) {
	key := a.Mode().StateKey()
	data, err := a.backend.Get(ctx, key)
	if errors.Is(err, ErrNoValue) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading %s: %w", key, err)
	}
	var st domain.State
	if err := json.Unmarshal(data, &st); err != nil {
		a.logger.WarnContext(ctx, "stored state is corrupt, falling back to seed", "key", key, "error", err)
		return nil, false, nil
	}
	st.Normalize()
	return &st, true, nil
}

// Marshal is the serialization Save uses. Struct fields keep declaration
// order and map keys are sorted, so equal states give identical bytes.
func Marshal(st *domain.State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// Save writes st under the current mode's key.
func (a *Adapter) Save(ctx context.Context, st *domain.State) error {
	data, err := Marshal(st)
	if err != nil {
		return err
	}
	key := a.Mode().StateKey()
	if err := a.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// SaveAndClearSession writes st and removes the session marker, atomically
// when the backend supports batches.
func (a *Adapter) SaveAndClearSession(ctx context.Context, st *domain.State) error {
	data, err := Marshal(st)
	if err != nil {
		return err
	}
	mode := a.Mode()
	if b, ok := a.backend.(Batcher); ok {
		if err := b.Batch(ctx, map[string][]byte{mode.StateKey(): data}, []string{mode.SessionKey()}); err != nil {
			return fmt.Errorf("saving %s: %w", mode.StateKey(), err)
		}
		return nil
	}
	if err := a.backend.Put(ctx, mode.StateKey(), data); err != nil {
		return fmt.Errorf("saving %s: %w", mode.StateKey(), err)
	}
	return a.ClearSession(ctx)
}

// LoadSession returns the logged-in marker, or nil when nobody is logged in.
func (a *Adapter) LoadSession(ctx context.Context) (*domain.SessionMarker, error) {
	key := a.Mode().SessionKey()
	data, err := a.backend.Get(ctx, key)
	if errors.Is(err, ErrNoValue) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	var m domain.SessionMarker
	if err := json.Unmarshal(data, &m); err != nil {
		a.logger.WarnContext(ctx, "stored session marker is corrupt, ignoring", "key", key, "error", err)
		return nil, nil
	}
	return &m, nil
}

func (a *Adapter) SaveSession(ctx context.Context, m domain.SessionMarker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding session marker: %w", err)
	}
	key := a.Mode().SessionKey()
	if err := a.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) ClearSession(ctx context.Context) error {
	key := a.Mode().SessionKey()
	if err := a.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("clearing %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) Close() error { return a.backend.Close() }
