package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFeatureEnabled_Precedence(t *testing.T) {
	flags := &FeatureFlags{
		Global:     map[string]bool{"raid": true},
		PerProject: map[ProjectID]map[string]bool{"PROJ_a": {"raid": false}},
	}

	assert.False(t, IsFeatureEnabled(flags, "raid", "PROJ_a"), "project override wins")
	assert.True(t, IsFeatureEnabled(flags, "raid", "PROJ_b"), "no override falls back to global")
	assert.True(t, IsFeatureEnabled(flags, "raid", ""))
}

func TestIsFeatureEnabled_Defaults(t *testing.T) {
	assert.True(t, IsFeatureEnabled(nil, "anything", "PROJ_a"))
	assert.True(t, IsFeatureEnabled(&FeatureFlags{}, "anything", ""))

	off := false
	assert.False(t, IsFeatureEnabled(&FeatureFlags{Default: &off}, "anything", ""))
}

func TestResolveFeature_TenantLayer(t *testing.T) {
	flags := &FeatureFlags{
		Global:     map[string]bool{"chat": true},
		PerProject: map[ProjectID]map[string]bool{"PROJ_a": {"chat": true}},
	}
	tenant := []TenantFeatureFlag{{TenantID: "TEN_1", Name: "chat", Enabled: false}}

	cases := []struct {
		name      string
		tenantID  TenantID
		projectID ProjectID
		want      bool
	}{
		{"project beats tenant", "TEN_1", "PROJ_a", true},
		{"tenant beats global", "TEN_1", "PROJ_b", false},
		{"other tenant uses global", "TEN_2", "PROJ_b", true},
		{"no tenant uses global", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveFeature(flags, tenant, "chat", tc.tenantID, tc.projectID))
		})
	}
}

func TestFlagNames(t *testing.T) {
	flags := &FeatureFlags{
		Global:     map[string]bool{"a": true, "b": false},
		PerProject: map[ProjectID]map[string]bool{"PROJ_a": {"b": true, "c": true}},
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, flags.FlagNames())
}
