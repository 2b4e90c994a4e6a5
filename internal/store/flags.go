package store

import (
	"context"
	"sort"
	"strings"

	"github.com/alexanderramin/delegate/internal/domain"
)

// IsFeatureEnabled resolves name for projectID: project override, then the
// global flag, then the default.
func (s *Store) IsFeatureEnabled(name string, projectID domain.ProjectID) bool {
	var v bool
	s.view(func(st *domain.State) { v = domain.IsFeatureEnabled(&st.Features, name, projectID) })
	return v
}

// ResolveFeature is IsFeatureEnabled with tenant flags layered between the
// project override and the global flag.
func (s *Store) ResolveFeature(name string, tenantID domain.TenantID, projectID domain.ProjectID) bool {
	var v bool
	s.view(func(st *domain.State) {
		v = domain.ResolveFeature(&st.Features, st.TenantFeatureFlags, name, tenantID, projectID)
	})
	return v
}

// Features returns a copy of the flag configuration.
func (s *Store) Features() domain.FeatureFlags {
	var f domain.FeatureFlags
	s.view(func(st *domain.State) { f = detach(st.Features) })
	return f
}

// TenantFlags returns the tenant-level flags of tenantID, or all when empty.
func (s *Store) TenantFlags(tenantID domain.TenantID) []domain.TenantFeatureFlag {
	var out []domain.TenantFeatureFlag
	s.view(func(st *domain.State) {
		for _, tf := range st.TenantFeatureFlags {
			if tenantID == "" || tf.TenantID == tenantID {
				out = append(out, tf)
			}
		}
	})
	return domain.NonNil(out)
}

// FlagNames lists every flag defined at any layer, sorted.
func (s *Store) FlagNames() []string {
	var names []string
	s.view(func(st *domain.State) {
		seen := map[string]bool{}
		for _, n := range st.Features.FlagNames() {
			seen[n] = true
		}
		for _, tf := range st.TenantFeatureFlags {
			seen[tf.Name] = true
		}
		for n := range seen {
			names = append(names, n)
		}
	})
	sort.Strings(names)
	return names
}

func flagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidf("flag name is required")
	}
	return name, nil
}

// SetGlobalFlag sets the global value of name.
func (s *Store) SetGlobalFlag(ctx context.Context, name string, enabled bool) error {
	name, err := flagName(name)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "SetGlobalFlag", map[string]any{"flag": name, "enabled": enabled}, func(st *domain.State) error {
		st.Features.Global[name] = enabled
		return nil
	})
}

// UnsetGlobalFlag removes the global value so name falls back to the
// default.
func (s *Store) UnsetGlobalFlag(ctx context.Context, name string) error {
	return s.mutate(ctx, "UnsetGlobalFlag", map[string]any{"flag": name}, func(st *domain.State) error {
		delete(st.Features.Global, name)
		return nil
	})
}

// SetProjectFlag overrides name for one project.
func (s *Store) SetProjectFlag(ctx context.Context, projectID domain.ProjectID, name string, enabled bool) error {
	name, err := flagName(name)
	if err != nil {
		return err
	}
	fields := map[string]any{"flag": name, "project_id": projectID, "enabled": enabled}
	return s.mutate(ctx, "SetProjectFlag", fields, func(st *domain.State) error {
		if !projects.exists(st, projectID) {
			return invalidf("project %s does not exist", projectID)
		}
		overrides := st.Features.PerProject[projectID]
		if overrides == nil {
			overrides = map[string]bool{}
			st.Features.PerProject[projectID] = overrides
		}
		overrides[name] = enabled
		return nil
	})
}

// UnsetProjectFlag removes a project override. An emptied override map is
// dropped.
func (s *Store) UnsetProjectFlag(ctx context.Context, projectID domain.ProjectID, name string) error {
	return s.mutate(ctx, "UnsetProjectFlag", map[string]any{"flag": name, "project_id": projectID}, func(st *domain.State) error {
		overrides := st.Features.PerProject[projectID]
		delete(overrides, name)
		if len(overrides) == 0 {
			delete(st.Features.PerProject, projectID)
		}
		return nil
	})
}

// SetTenantFlag sets name for every project of tenantID that has no
// project override.
func (s *Store) SetTenantFlag(ctx context.Context, tenantID domain.TenantID, name string, enabled bool) error {
	name, err := flagName(name)
	if err != nil {
		return err
	}
	fields := map[string]any{"flag": name, "tenant_id": tenantID, "enabled": enabled}
	return s.mutate(ctx, "SetTenantFlag", fields, func(st *domain.State) error {
		if !tenants.exists(st, tenantID) {
			return invalidf("tenant %s does not exist", tenantID)
		}
		for i := range st.TenantFeatureFlags {
			tf := &st.TenantFeatureFlags[i]
			if tf.TenantID == tenantID && tf.Name == name {
				tf.Enabled = enabled
				return nil
			}
		}
		st.TenantFeatureFlags = append(st.TenantFeatureFlags, domain.TenantFeatureFlag{TenantID: tenantID, Name: name, Enabled: enabled})
		return nil
	})
}

func (s *Store) UnsetTenantFlag(ctx context.Context, tenantID domain.TenantID, name string) error {
	return s.mutate(ctx, "UnsetTenantFlag", map[string]any{"flag": name, "tenant_id": tenantID}, func(st *domain.State) error {
		kept := st.TenantFeatureFlags[:0]
		for _, tf := range st.TenantFeatureFlags {
			if tf.TenantID != tenantID || tf.Name != name {
				kept = append(kept, tf)
			}
		}
		st.TenantFeatureFlags = kept
		return nil
	})
}

// SetFlagDefault changes the value of flags no layer defines. A nil value
// restores the built-in default.
func (s *Store) SetFlagDefault(ctx context.Context, value *bool) error {
	return s.mutate(ctx, "SetFlagDefault", map[string]any{"default": value}, func(st *domain.State) error {
		if value == nil {
			st.Features.Default = nil
			return nil
		}
		st.Features.Default = domain.Ptr(*value)
		return nil
	})
}

// UpdateFeatures applies fn to a copy of the whole flag configuration.
func (s *Store) UpdateFeatures(ctx context.Context, fn func(*domain.FeatureFlags) error) (domain.FeatureFlags, error) {
	var out domain.FeatureFlags
	err := s.mutate(ctx, "UpdateFeatures", nil, func(st *domain.State) error {
		cp := detach(st.Features)
		if err := fn(&cp); err != nil {
			return err
		}
		if cp.Global == nil {
			cp.Global = map[string]bool{}
		}
		if cp.PerProject == nil {
			cp.PerProject = map[domain.ProjectID]map[string]bool{}
		}
		st.Features = cp
		out = detach(cp)
		return nil
	})
	return out, err
}
