package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

func TestResolve(t *testing.T) {
	candidates := []candidate{
		{id: "PROJ_a1b2", name: "Apollo"},
		{id: "PROJ_a1c3", name: "Gemini"},
		{id: "PROJ_z9", name: "apollo"},
		{id: "PROJ_x7", name: "Mercury"},
	}

	tests := []struct {
		name     string
		input    string
		want     string
		wantErr  string
		notFound bool
	}{
		{name: "exact id", input: "PROJ_x7", want: "PROJ_x7"},
		{name: "unique name ignoring case", input: "MERCURY", want: "PROJ_x7"},
		{name: "unique prefix", input: "PROJ_a1c", want: "PROJ_a1c3"},
		{name: "ambiguous name", input: "Apollo", wantErr: "ambiguous"},
		{name: "ambiguous prefix", input: "PROJ_a1", wantErr: "ambiguous"},
		{name: "missing", input: "Venus", wantErr: "not found", notFound: true},
		{name: "empty", input: "", wantErr: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve("project", tt.input, candidates)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.notFound, errors.Is(err, store.ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnum(t *testing.T) {
	got, err := parseEnum("status", "on-hold", domain.ProjectOnHold, domain.ProjectActive)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectOnHold, got)

	item, err := parseEnum("status", "IN_PROGRESS", domain.StatusBacklog, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, item)

	_, err = parseEnum("status", "paused", domain.ProjectOnHold, domain.ProjectActive)
	require.ErrorIs(t, err, store.ErrInvalid)
	assert.Contains(t, err.Error(), "On Hold, Active")
}
