package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
	"github.com/alexanderramin/delegate/internal/testutil"
)

func TestFeatureFlags_ProjectOverrideBeatsGlobal(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	overridden, err := ts.CreateProject(ctx, testutil.NewTestProject("Overridden"))
	require.NoError(t, err)
	plain, err := ts.CreateProject(ctx, testutil.NewTestProject("Plain"))
	require.NoError(t, err)

	require.NoError(t, ts.SetGlobalFlag(ctx, "raid", true))
	require.NoError(t, ts.SetProjectFlag(ctx, overridden.ProjectID, "raid", false))

	assert.False(t, ts.IsFeatureEnabled("raid", overridden.ProjectID))
	assert.True(t, ts.IsFeatureEnabled("raid", plain.ProjectID))
	assert.True(t, ts.IsFeatureEnabled("raid", ""))
}

func TestFeatureFlags_DefaultAndTenantLayer(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p, err := ts.CreateProject(ctx, testutil.NewTestProject("P"))
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultFeatureEnabled, ts.IsFeatureEnabled("undefined", p.ProjectID))

	require.NoError(t, ts.SetFlagDefault(ctx, domain.Ptr(false)))
	assert.False(t, ts.IsFeatureEnabled("undefined", p.ProjectID))

	require.NoError(t, ts.SetTenantFlag(ctx, testutil.TenantID, "undefined", true))
	assert.True(t, ts.ResolveFeature("undefined", testutil.TenantID, p.ProjectID))
	assert.False(t, ts.ResolveFeature("undefined", "TEN_other", p.ProjectID))

	require.NoError(t, ts.SetProjectFlag(ctx, p.ProjectID, "undefined", false))
	assert.False(t, ts.ResolveFeature("undefined", testutil.TenantID, p.ProjectID))

	require.NoError(t, ts.SetFlagDefault(ctx, nil))
	assert.Nil(t, ts.Features().Default)
}

func TestFeatureFlags_UnsetAndNames(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p, err := ts.CreateProject(ctx, testutil.NewTestProject("P"))
	require.NoError(t, err)

	require.NoError(t, ts.SetGlobalFlag(ctx, "chat", false))
	require.NoError(t, ts.SetProjectFlag(ctx, p.ProjectID, "forum", false))
	require.NoError(t, ts.SetTenantFlag(ctx, testutil.TenantID, "skills", true))
	require.NoError(t, ts.SetTenantFlag(ctx, testutil.TenantID, "skills", false))

	assert.Equal(t, []string{"chat", "forum", "skills"}, ts.FlagNames())
	require.Len(t, ts.TenantFlags(testutil.TenantID), 1)
	assert.False(t, ts.TenantFlags("")[0].Enabled)

	require.NoError(t, ts.UnsetProjectFlag(ctx, p.ProjectID, "forum"))
	assert.NotContains(t, ts.Features().PerProject, p.ProjectID, "emptied override map is dropped")
	require.NoError(t, ts.UnsetGlobalFlag(ctx, "chat"))
	require.NoError(t, ts.UnsetTenantFlag(ctx, testutil.TenantID, "skills"))
	assert.Empty(t, ts.FlagNames())
}

func TestFeatureFlags_Validation(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, ts.SetGlobalFlag(ctx, "  ", true), store.ErrInvalid)
	assert.ErrorIs(t, ts.SetProjectFlag(ctx, "PROJ_missing", "raid", true), store.ErrInvalid)
	assert.ErrorIs(t, ts.SetTenantFlag(ctx, "TEN_missing", "raid", true), store.ErrInvalid)
}

func TestUpdateFeatures_ReplacesWholeConfig(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	out, err := ts.UpdateFeatures(ctx, func(f *domain.FeatureFlags) error {
		f.Global = nil
		f.PerProject = nil
		return nil
	})
	require.NoError(t, err)
	assert.NotNil(t, out.Global)
	assert.NotNil(t, out.PerProject)

	_, err = ts.UpdateFeatures(ctx, func(f *domain.FeatureFlags) error {
		f.Global["x"] = true
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.NotContains(t, ts.Features().Global, "x")
}
