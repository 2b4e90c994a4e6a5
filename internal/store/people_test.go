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

func TestCreateUser_DefaultsAndValidation(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	u, err := ts.CreateUser(ctx, domain.User{TenantID: testutil.TenantID, DisplayName: "Dana"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserWorker, u.Role)
	assert.NotEmpty(t, u.UserID)
	assert.Len(t, ts.ListUsers(testutil.TenantID), 4)

	tests := []struct {
		name string
		user domain.User
	}{
		{"missing name", domain.User{DisplayName: "  "}},
		{"unknown role", domain.User{DisplayName: "X", Role: "Overlord"}},
		{"unknown tenant", domain.User{DisplayName: "X", TenantID: "TEN_missing"}},
		{"duplicate id", domain.User{DisplayName: "X", UserID: testutil.AdminID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.CreateUser(ctx, tt.user)
			assert.ErrorIs(t, err, store.ErrInvalid)
		})
	}

	got, err := ts.UpdateUser(ctx, u.UserID, func(u *domain.User) error {
		u.Role = domain.UserApprover
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UserApprover, got.Role)

	_, err = ts.GetUser("USER_missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateTenant(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	tn, err := ts.CreateTenant(ctx, domain.Tenant{Name: "Second"})
	require.NoError(t, err)
	_, ok := ts.FindTenant(tn.TenantID)
	assert.True(t, ok)
	assert.Len(t, ts.ListTenants(), 2)

	_, err = ts.CreateTenant(ctx, domain.Tenant{Name: ""})
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = ts.CreateTenant(ctx, domain.Tenant{TenantID: testutil.TenantID, Name: "Again"})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestRoles_HierarchyAndAssignments(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p := newProject(t, ts, "P")
	other := newProject(t, ts, "Other")

	lead, err := ts.CreateRole(ctx, domain.Role{ProjectID: p.ProjectID, Name: "Lead", IsLeadership: true})
	require.NoError(t, err)
	assert.Equal(t, 999, lead.SortOrder)
	dev, err := ts.CreateRole(ctx, domain.Role{ProjectID: p.ProjectID, Name: "Dev", ParentRoleID: &lead.RoleID, SortOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, dev.SortOrder)

	_, err = ts.CreateRole(ctx, domain.Role{ProjectID: other.ProjectID, Name: "X", ParentRoleID: &lead.RoleID})
	assert.ErrorIs(t, err, store.ErrInvalid, "parent must share the project")

	_, err = ts.UpdateRole(ctx, lead.RoleID, func(r *domain.Role) error {
		r.ParentRoleID = &dev.RoleID
		return nil
	})
	assert.ErrorIs(t, err, store.ErrCycle)

	first, err := ts.AssignRole(ctx, dev.RoleID, testutil.WorkerID)
	require.NoError(t, err)
	assert.Equal(t, p.ProjectID, first.ProjectID)
	second, err := ts.AssignRole(ctx, dev.RoleID, testutil.WorkerID)
	require.NoError(t, err)
	assert.Equal(t, first.AssignmentID, second.AssignmentID)
	assert.Len(t, ts.ListRoleAssignments(store.RoleAssignmentFilter{ProjectID: p.ProjectID}), 1)

	_, err = ts.AssignRole(ctx, dev.RoleID, "USER_missing")
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = ts.AssignRole(ctx, "ROLE_missing", testutil.WorkerID)
	assert.ErrorIs(t, err, store.ErrInvalid)

	require.NoError(t, ts.DeleteRoleAssignment(ctx, first.AssignmentID))
	assert.ErrorIs(t, ts.DeleteRoleAssignment(ctx, first.AssignmentID), store.ErrNotFound)
}

func TestPermissions(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p := newProject(t, ts, "P")
	other := newProject(t, ts, "Other")

	assert.True(t, ts.IsAdmin(testutil.AdminID))
	assert.False(t, ts.IsAdmin(testutil.WorkerID))
	assert.False(t, ts.IsAdmin("USER_missing"))

	assert.True(t, ts.IsApprover(testutil.ApproverID, testutil.TenantID))
	assert.True(t, ts.IsApprover(testutil.AdminID, ""))
	assert.False(t, ts.IsApprover(testutil.ApproverID, "TEN_other"))
	assert.False(t, ts.IsApprover(testutil.WorkerID, testutil.TenantID))

	assert.True(t, ts.IsProjectManager(testutil.AdminID, p.ProjectID))
	assert.False(t, ts.IsProjectManager(testutil.WorkerID, p.ProjectID))

	lead, err := ts.CreateRole(ctx, domain.Role{ProjectID: p.ProjectID, Name: "Lead", IsLeadership: true})
	require.NoError(t, err)
	member, err := ts.CreateRole(ctx, domain.Role{ProjectID: other.ProjectID, Name: "Member"})
	require.NoError(t, err)
	_, err = ts.AssignRole(ctx, lead.RoleID, testutil.WorkerID)
	require.NoError(t, err)
	_, err = ts.AssignRole(ctx, member.RoleID, testutil.WorkerID)
	require.NoError(t, err)

	assert.True(t, ts.IsProjectManager(testutil.WorkerID, p.ProjectID))
	assert.False(t, ts.IsProjectManager(testutil.WorkerID, other.ProjectID), "non-leadership roles do not manage")
}
