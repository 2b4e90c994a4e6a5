package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
	"github.com/alexanderramin/delegate/internal/testutil"
)

// --- flags ---

func TestFlag_LayeredResolution(t *testing.T) {
	app, ts := testApp(t)
	p := seedProject(t, ts, "Apollo")

	_, err := executeCmd(t, app, "flag", "set", "beta", "off")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "flag", "set", "beta", "on", "--project", "Apollo")
	require.NoError(t, err)

	assert.False(t, ts.IsFeatureEnabled("beta", ""))
	assert.True(t, ts.IsFeatureEnabled("beta", p.ProjectID))

	out, err := executeCmd(t, app, "flag", "check", "beta", "--project", "Apollo")
	require.NoError(t, err)
	assert.Contains(t, out, "beta: on")

	_, err = executeCmd(t, app, "flag", "unset", "beta", "--project", "Apollo")
	require.NoError(t, err)
	assert.False(t, ts.IsFeatureEnabled("beta", p.ProjectID))

	out, err = executeCmd(t, app, "flag", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "beta")
}

func TestFlag_TenantLayer(t *testing.T) {
	app, ts := testApp(t)

	_, err := executeCmd(t, app, "flag", "set", "reports", "off", "--tenant", string(testutil.TenantID))
	require.NoError(t, err)

	assert.False(t, ts.ResolveFeature("reports", testutil.TenantID, ""))
	assert.True(t, ts.ResolveFeature("reports", "", ""), "undefined flags fall back to the default")

	out, err := executeCmd(t, app, "flag", "list", "--tenant", string(testutil.TenantID))
	require.NoError(t, err)
	assert.Contains(t, out, "reports")
}

func TestFlag_Default(t *testing.T) {
	app, ts := testApp(t)

	_, err := executeCmd(t, app, "flag", "default", "off")
	require.NoError(t, err)
	assert.False(t, ts.IsFeatureEnabled("anything", ""))

	_, err = executeCmd(t, app, "flag", "default", "clear")
	require.NoError(t, err)
	assert.True(t, ts.IsFeatureEnabled("anything", ""))
}

func TestFlagSet_ScopeFlagsExclusive(t *testing.T) {
	app, ts := testApp(t)
	seedProject(t, ts, "Apollo")

	_, err := executeCmd(t, app, "flag", "set", "beta", "on", "--project", "Apollo", "--tenant", string(testutil.TenantID))
	require.Error(t, err)
}

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{input: "on", want: true},
		{input: "TRUE", want: true},
		{input: " yes ", want: true},
		{input: "off", want: false},
		{input: "0", want: false},
		{input: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOnOff(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, store.ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// --- notifications ---

func testNotification(title string) domain.Notification {
	return domain.Notification{UserID: testutil.WorkerID, Title: title}
}

func TestNotify_ReadOneAndAll(t *testing.T) {
	app, ts := testApp(t)
	ctx := context.Background()
	for _, title := range []string{"First", "Second", "Third"} {
		_, err := ts.CreateNotification(ctx, testNotification(title))
		require.NoError(t, err)
	}
	unread := ts.ListNotifications(testutil.WorkerID, true)
	require.Len(t, unread, 3)

	_, err := executeCmd(t, app, "--as", "Worker", "notify", "read", string(unread[0].NotificationID))
	require.NoError(t, err)
	assert.Len(t, ts.ListNotifications(testutil.WorkerID, true), 2)

	out, err := executeCmd(t, app, "--as", "Worker", "notify", "read", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Marked 2 notifications read")
	assert.Empty(t, ts.ListNotifications(testutil.WorkerID, true))
}

func TestNotifyRead_NeedsTarget(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "--as", "Worker", "notify", "read")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

// --- data ---

func TestData_ExportImportRoundTrip(t *testing.T) {
	app, ts := testApp(t)
	seedProject(t, ts, "Apollo")
	path := filepath.Join(t.TempDir(), "state.json")

	out, err := executeCmd(t, app, "data", "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")

	seedProject(t, ts, "Gemini")
	require.Len(t, ts.ListProjects(""), 2)

	_, err = executeCmd(t, app, "data", "import", path)
	require.Error(t, err, "import replaces everything, so it needs confirmation")
	require.Len(t, ts.ListProjects(""), 2)

	_, err = executeCmd(t, app, "data", "import", path, "--yes")
	require.NoError(t, err)
	projects := ts.ListProjects("")
	require.Len(t, projects, 1)
	assert.Equal(t, "Apollo", projects[0].Name)
}

func TestDataExport_Stdout(t *testing.T) {
	app, ts := testApp(t)
	seedProject(t, ts, "Apollo")

	out, err := executeCmd(t, app, "data", "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"Apollo"`)
}

func TestDataImport_RejectsBadDocument(t *testing.T) {
	app, ts := testApp(t)
	seedProject(t, ts, "Apollo")
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"projects": []}`), 0o600))

	_, err := executeCmd(t, app, "data", "import", path, "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import failed")
	assert.Len(t, ts.ListProjects(""), 1)
}

func TestDataReset(t *testing.T) {
	app, ts := testApp(t)
	seedProject(t, ts, "Apollo")
	_, err := executeCmd(t, app, "login", "Worker")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "data", "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset: 0 projects, 3 users")
	assert.Empty(t, ts.ListProjects(""))

	_, err = executeCmd(t, app, "whoami")
	require.ErrorIs(t, err, errNoActor)
}

// --- stats ---

func TestStats(t *testing.T) {
	app, ts := testApp(t)
	seedProject(t, ts, "Apollo")

	out, err := executeCmd(t, app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "projects")

	out, err = executeCmd(t, app, "stats", "--prom")
	require.NoError(t, err)
	assert.Contains(t, out, "delegate_store_operations_total")
	assert.Contains(t, out, `use_case="CreateProject"`)
	assert.Contains(t, out, "delegate_state_records")
}

func TestStats_PromWithoutMetrics(t *testing.T) {
	app, _ := testApp(t)
	app.Metrics = nil

	_, err := executeCmd(t, app, "stats", "--prom")
	require.Error(t, err)
}
