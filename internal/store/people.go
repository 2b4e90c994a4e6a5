package store

import (
	"context"
	"strings"

	"github.com/alexanderramin/delegate/internal/domain"
)

// Tenants

func (s *Store) ListTenants() []domain.Tenant {
	var out []domain.Tenant
	s.view(func(st *domain.State) { out = tenants.list(st, nil) })
	return out
}

func (s *Store) FindTenant(id domain.TenantID) (domain.Tenant, bool) {
	var (
		t  domain.Tenant
		ok bool
	)
	s.view(func(st *domain.State) { t, ok = tenants.find(st, id) })
	return t, ok
}

func (s *Store) CreateTenant(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	err := s.mutate(ctx, "CreateTenant", map[string]any{"name": t.Name}, func(st *domain.State) error {
		if strings.TrimSpace(t.Name) == "" {
			return invalidf("tenant name is required")
		}
		t.TenantID = domain.Coalesce(t.TenantID, domain.TenantID(domain.NewID(domain.PrefixTenant)))
		if tenants.exists(st, t.TenantID) {
			return invalidf("tenant %s already exists", t.TenantID)
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.now()
		}
		tenants.insert(st, t)
		return nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}
	return t, nil
}

// Users

func (s *Store) FindUser(id domain.UserID) (domain.User, bool) {
	var (
		u  domain.User
		ok bool
	)
	s.view(func(st *domain.State) { u, ok = users.find(st, id) })
	return u, ok
}

func (s *Store) GetUser(id domain.UserID) (*domain.User, error) {
	var (
		u   *domain.User
		err error
	)
	s.view(func(st *domain.State) { u, err = users.get(st, id) })
	return u, err
}

// ListUsers returns the users of tenantID, or every user when it is empty.
func (s *Store) ListUsers(tenantID domain.TenantID) []domain.User {
	var out []domain.User
	s.view(func(st *domain.State) {
		out = users.list(st, func(u *domain.User) bool { return tenantID == "" || u.TenantID == tenantID })
	})
	return out
}

func validateUser(st *domain.State, u *domain.User) error {
	if strings.TrimSpace(u.DisplayName) == "" {
		return invalidf("user display name is required")
	}
	switch u.Role {
	case domain.UserAdmin, domain.UserProjectManager, domain.UserApprover, domain.UserWorker:
	default:
		return invalidf("unknown user role %q", u.Role)
	}
	if u.TenantID != "" && !tenants.exists(st, u.TenantID) {
		return invalidf("tenant %s does not exist", u.TenantID)
	}
	return nil
}

// CreateUser defaults the role to Worker.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := s.mutate(ctx, "CreateUser", map[string]any{"tenant_id": u.TenantID}, func(st *domain.State) error {
		u.UserID = domain.Coalesce(u.UserID, domain.UserID(domain.NewID(domain.PrefixUser)))
		if users.exists(st, u.UserID) {
			return invalidf("user %s already exists", u.UserID)
		}
		u.Role = domain.Coalesce(u.Role, domain.UserWorker)
		if u.CreatedAt.IsZero() {
			u.CreatedAt = s.now()
		}
		if err := validateUser(st, &u); err != nil {
			return err
		}
		users.insert(st, u)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return detach(u), nil
}

func (s *Store) UpdateUser(ctx context.Context, id domain.UserID, fn func(*domain.User) error) (domain.User, error) {
	var out domain.User
	err := s.mutate(ctx, "UpdateUser", map[string]any{"user_id": id}, func(st *domain.State) error {
		var err error
		out, err = users.update(st, id, fn, func(u *domain.User) error { return validateUser(st, u) })
		return err
	})
	return out, err
}

// DeleteUser removes the user along with their assignments, skills,
// notifications and PTO, and strips them from assignee and RACI lists.
// Time entries and sessions stay as history.
func (s *Store) DeleteUser(ctx context.Context, id domain.UserID) error {
	return s.mutate(ctx, "DeleteUser", map[string]any{"user_id": id}, func(st *domain.State) error {
		if !users.remove(st, id) {
			return users.notFound(id)
		}
		cascade(st, ref{kind: kindUser, id: string(id)})
		return nil
	})
}

// Roles

func (s *Store) FindRole(id domain.RoleID) (domain.Role, bool) {
	var (
		r  domain.Role
		ok bool
	)
	s.view(func(st *domain.State) { r, ok = roles.find(st, id) })
	return r, ok
}

func (s *Store) ListRoles(projectID domain.ProjectID) []domain.Role {
	var out []domain.Role
	s.view(func(st *domain.State) {
		out = roles.list(st, func(r *domain.Role) bool { return projectID == "" || r.ProjectID == projectID })
	})
	return out
}

func validateRole(st *domain.State, r *domain.Role) error {
	if strings.TrimSpace(r.Name) == "" {
		return invalidf("role name is required")
	}
	if !projects.exists(st, r.ProjectID) {
		return invalidf("project %s does not exist", r.ProjectID)
	}
	if r.ParentRoleID == nil {
		return nil
	}
	parent, err := roles.ref(st, *r.ParentRoleID)
	if err != nil {
		return invalid(err)
	}
	if parent.ProjectID != r.ProjectID {
		return invalidf("parent role %s belongs to another project", parent.RoleID)
	}
	return checkParent(r.RoleID, r.ParentRoleID, func(id domain.RoleID) *domain.RoleID {
		if p, err := roles.ref(st, id); err == nil {
			return p.ParentRoleID
		}
		return nil
	})
}

// defaultSortOrder places roles created without an order last.
const defaultSortOrder = 999

func (s *Store) CreateRole(ctx context.Context, r domain.Role) (domain.Role, error) {
	err := s.mutate(ctx, "CreateRole", map[string]any{"project_id": r.ProjectID}, func(st *domain.State) error {
		r.RoleID = domain.Coalesce(r.RoleID, domain.RoleID(domain.NewID(domain.PrefixRole)))
		if roles.exists(st, r.RoleID) {
			return invalidf("role %s already exists", r.RoleID)
		}
		if r.SortOrder == 0 {
			r.SortOrder = defaultSortOrder
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		if err := validateRole(st, &r); err != nil {
			return err
		}
		roles.insert(st, r)
		return nil
	})
	if err != nil {
		return domain.Role{}, err
	}
	return detach(r), nil
}

func (s *Store) UpdateRole(ctx context.Context, id domain.RoleID, fn func(*domain.Role) error) (domain.Role, error) {
	var out domain.Role
	err := s.mutate(ctx, "UpdateRole", map[string]any{"role_id": id}, func(st *domain.State) error {
		var err error
		out, err = roles.update(st, id, fn, func(r *domain.Role) error { return validateRole(st, r) })
		return err
	})
	return out, err
}

// DeleteRole removes the role and its assignments; child roles become
// top-level.
func (s *Store) DeleteRole(ctx context.Context, id domain.RoleID) error {
	return s.mutate(ctx, "DeleteRole", map[string]any{"role_id": id}, func(st *domain.State) error {
		if !roles.remove(st, id) {
			return roles.notFound(id)
		}
		cascade(st, ref{kind: kindRole, id: string(id)})
		return nil
	})
}

// Role assignments

// RoleAssignmentFilter narrows ListRoleAssignments. Zero fields match
// everything.
type RoleAssignmentFilter struct {
	ProjectID domain.ProjectID
	RoleID    domain.RoleID
	UserID    domain.UserID
}

func (f RoleAssignmentFilter) match(a *domain.RoleAssignment) bool {
	return (f.ProjectID == "" || a.ProjectID == f.ProjectID) &&
		(f.RoleID == "" || a.RoleID == f.RoleID) &&
		(f.UserID == "" || a.UserID == f.UserID)
}

func (s *Store) ListRoleAssignments(f RoleAssignmentFilter) []domain.RoleAssignment {
	var out []domain.RoleAssignment
	s.view(func(st *domain.State) { out = roleAssignments.list(st, f.match) })
	return out
}

// AssignRole gives userID the role. The assignment inherits the role's
// project; assigning the same pair twice returns the existing assignment.
func (s *Store) AssignRole(ctx context.Context, roleID domain.RoleID, userID domain.UserID) (domain.RoleAssignment, error) {
	var out domain.RoleAssignment
	err := s.mutate(ctx, "AssignRole", map[string]any{"role_id": roleID, "user_id": userID}, func(st *domain.State) error {
		role, err := roles.ref(st, roleID)
		if err != nil {
			return invalid(err)
		}
		if !users.exists(st, userID) {
			return invalidf("user %s does not exist", userID)
		}
		existing := roleAssignments.list(st, RoleAssignmentFilter{RoleID: roleID, UserID: userID}.match)
		if len(existing) > 0 {
			out = existing[0]
			return nil
		}
		out = domain.RoleAssignment{
			AssignmentID: domain.RoleAssignmentID(domain.NewID(domain.PrefixRoleAssignment)),
			ProjectID:    role.ProjectID,
			RoleID:       roleID,
			UserID:       userID,
			AssignedAt:   s.now(),
		}
		roleAssignments.insert(st, out)
		return nil
	})
	return out, err
}

func (s *Store) DeleteRoleAssignment(ctx context.Context, id domain.RoleAssignmentID) error {
	return s.mutate(ctx, "DeleteRoleAssignment", map[string]any{"assignment_id": id}, func(st *domain.State) error {
		if !roleAssignments.remove(st, id) {
			return roleAssignments.notFound(id)
		}
		return nil
	})
}

// Permissions. These checks are advisory; the store does not enforce them.

// IsAdmin reports whether userID holds the tenant Admin role.
func (s *Store) IsAdmin(userID domain.UserID) bool {
	u, ok := s.FindUser(userID)
	return ok && u.Role == domain.UserAdmin
}

// IsProjectManager reports whether userID manages projectID, either through
// their user role or through a leadership role assignment in the project.
// Admins manage every project.
func (s *Store) IsProjectManager(userID domain.UserID, projectID domain.ProjectID) bool {
	var ok bool
	s.view(func(st *domain.State) {
		u, err := users.ref(st, userID)
		if err != nil {
			return
		}
		if u.Role == domain.UserAdmin || u.Role == domain.UserProjectManager {
			ok = true
			return
		}
		roleAssignments.each(st, func(a *domain.RoleAssignment) {
			if ok || a.UserID != userID || a.ProjectID != projectID {
				return
			}
			if r, err := roles.ref(st, a.RoleID); err == nil && r.IsLeadership {
				ok = true
			}
		})
	})
	return ok
}

// IsApprover reports whether userID may concur time entries in tenantID.
func (s *Store) IsApprover(userID domain.UserID, tenantID domain.TenantID) bool {
	u, ok := s.FindUser(userID)
	if !ok || (tenantID != "" && u.TenantID != tenantID) {
		return false
	}
	return u.Role == domain.UserAdmin || u.Role == domain.UserApprover
}
