package metrics

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{fmt.Errorf("project P: %w", store.ErrNotFound), OutcomeNotFound},
		{fmt.Errorf("%w: name is required", store.ErrInvalid), OutcomeInvalid},
		{domain.ErrInvalidTransition, OutcomeInvalidTransition},
		{store.ErrLocked, OutcomeLocked},
		{store.ErrSessionActive, OutcomeSessionActive},
		{fmt.Errorf("%w: loop", store.ErrCycle), OutcomeCycle},
		{fmt.Errorf("%w: %w", store.ErrPersist, assert.AnError), OutcomePersist},
		{assert.AnError, OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestObserver_CountsByOutcome(t *testing.T) {
	o := NewObserver()
	ctx := context.Background()

	o.ObserveUseCase(ctx, store.UseCaseEvent{Name: "CreateProject", Success: true, Duration: time.Millisecond})
	o.ObserveUseCase(ctx, store.UseCaseEvent{Name: "CreateProject", Success: true, Duration: time.Millisecond})
	o.ObserveUseCase(ctx, store.UseCaseEvent{Name: "CreateProject", Err: store.ErrInvalid})

	families, err := o.Gatherer().Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	var histograms int
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "delegate_store_operations_total":
				labels := map[string]string{}
				for _, lp := range m.GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
				got[labels["outcome"]] = m.GetCounter().GetValue()
			case "delegate_store_operation_duration_seconds":
				histograms++
				assert.Equal(t, uint64(3), m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, map[string]float64{OutcomeOK: 2, OutcomeInvalid: 1}, got)
	assert.Equal(t, 1, histograms)
}

func TestObserver_WriteTextIncludesCollections(t *testing.T) {
	o := NewObserver()
	require.NoError(t, o.TrackCollections(func() map[string]int {
		return map[string]int{"projects": 3, "users": 7}
	}))
	o.ObserveUseCase(context.Background(), store.UseCaseEvent{Name: "Open", Success: true})

	var buf bytes.Buffer
	require.NoError(t, o.WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, `delegate_state_records{collection="projects"} 3`)
	assert.Contains(t, out, `delegate_state_records{collection="users"} 7`)
	assert.Contains(t, out, `delegate_store_operations_total{outcome="ok",use_case="Open"} 1`)
	assert.Contains(t, out, "# TYPE delegate_store_operation_duration_seconds histogram")
}

func TestObserver_WriteTextfile(t *testing.T) {
	o := NewObserver()
	o.ObserveUseCase(context.Background(), store.UseCaseEvent{Name: "Logout", Success: true})

	path := filepath.Join(t.TempDir(), "delegate.prom")
	require.NoError(t, o.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `use_case="Logout"`)
}
