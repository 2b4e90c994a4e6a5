package domain

// DefaultFeatureEnabled is the value of a flag nobody has set.
const DefaultFeatureEnabled = true

// FeatureFlags holds global flag values and per-project overrides.
// Default, when set, replaces DefaultFeatureEnabled for this state.
type FeatureFlags struct {
	Global     map[string]bool               `json:"global"`
	PerProject map[ProjectID]map[string]bool `json:"perProject"`
	Default    *bool                         `json:"default,omitempty"`
}

// TenantFeatureFlag is a tenant-wide flag value.
type TenantFeatureFlag struct {
	TenantID TenantID `json:"tenantId"`
	Name     string   `json:"name"`
	Enabled  bool     `json:"enabled"`
}

// Fallback returns the value used when no layer defines a flag.
func (f *FeatureFlags) Fallback() bool {
	if f == nil || f.Default == nil {
		return DefaultFeatureEnabled
	}
	return *f.Default
}

// IsFeatureEnabled resolves name for projectID: project override, then the
// global flag, then the fallback. projectID may be empty.
func IsFeatureEnabled(flags *FeatureFlags, name string, projectID ProjectID) bool {
	return ResolveFeature(flags, nil, name, "", projectID)
}

// ResolveFeature resolves name with tenant flags layered between the
// project override and the global flag.
func ResolveFeature(flags *FeatureFlags, tenantFlags []TenantFeatureFlag, name string, tenantID TenantID, projectID ProjectID) bool {
	if flags != nil && projectID != "" {
		if overrides, ok := flags.PerProject[projectID]; ok {
			if v, ok := overrides[name]; ok {
				return v
			}
		}
	}
	if tenantID != "" {
		for _, tf := range tenantFlags {
			if tf.TenantID == tenantID && tf.Name == name {
				return tf.Enabled
			}
		}
	}
	if flags != nil {
		if v, ok := flags.Global[name]; ok {
			return v
		}
	}
	return flags.Fallback()
}

// FlagNames returns every flag name defined at any layer, unsorted.
func (f *FeatureFlags) FlagNames() []string {
	if f == nil {
		return nil
	}
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for n := range f.Global {
		add(n)
	}
	for _, overrides := range f.PerProject {
		for n := range overrides {
			add(n)
		}
	}
	return names
}
