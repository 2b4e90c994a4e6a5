package domain

import (
	"encoding/json"
	"fmt"
)

// State is the root object holding every collection. It is persisted as a
// single JSON document.
type State struct {
	Company            *Company            `json:"company"`
	Tenants            []Tenant            `json:"tenants"`
	Users              []User              `json:"users"`
	Projects           []Project           `json:"projects"`
	Tasks              []Task              `json:"tasks"`
	TaskNodes          []TaskNode          `json:"taskNodes"`
	TaskAssignments    []TaskAssignment    `json:"taskAssignments"`
	WorkItems          []WorkItem          `json:"workItems"`
	Sprints            []Sprint            `json:"sprints"`
	Roles              []Role              `json:"roles"`
	RoleAssignments    []RoleAssignment    `json:"roleAssignments"`
	Raid               []RaidEntry         `json:"raid"`
	Mappings           []Mapping           `json:"mappings"`
	Contracts          []Contract          `json:"contracts"`
	TimeEntries        []TimeEntry         `json:"timeEntries"`
	WorkSessions       []WorkSession       `json:"workSessions"`
	WorkSessionEvents  []WorkSessionEvent  `json:"workSessionEvents"`
	Notifications      []Notification      `json:"notifications"`
	ForumThreads       []ForumThread       `json:"forumThreads"`
	ForumPosts         []ForumPost         `json:"forumPosts"`
	ChatThreads        []ChatThread        `json:"chatThreads"`
	ChatMessages       []ChatMessage       `json:"chatMessages"`
	Meetings           []Meeting           `json:"meetings"`
	Deadlines          []Deadline          `json:"deadlines"`
	PtoEntries         []PtoEntry          `json:"ptoEntries"`
	AuditLogs          []AuditLog          `json:"auditLogs"`
	Skills             []Skill             `json:"skills"`
	UserSkills         []UserSkill         `json:"userSkills"`
	Features           FeatureFlags        `json:"features"`
	TenantFeatureFlags []TenantFeatureFlag `json:"tenantFeatureFlags"`

	DemoMode       bool `json:"demoMode,omitempty"`
	ResetOnRefresh bool `json:"resetOnRefresh,omitempty"`
}

// SessionMarker records who is logged in. It is persisted apart from State.
type SessionMarker struct {
	UserID   UserID   `json:"userId"`
	TenantID TenantID `json:"tenantId"`
}

// NewState returns an empty, normalized state.
func NewState() *State {
	s := &State{}
	s.Normalize()
	return s
}

// Normalize replaces nil collections with empty ones so that a state
// compares equal to itself after a JSON round trip.
func (s *State) Normalize() {
	emptyIfNil(&s.Tenants)
	emptyIfNil(&s.Users)
	emptyIfNil(&s.Projects)
	emptyIfNil(&s.Tasks)
	emptyIfNil(&s.TaskNodes)
	emptyIfNil(&s.TaskAssignments)
	emptyIfNil(&s.WorkItems)
	emptyIfNil(&s.Sprints)
	emptyIfNil(&s.Roles)
	emptyIfNil(&s.RoleAssignments)
	emptyIfNil(&s.Raid)
	emptyIfNil(&s.Mappings)
	emptyIfNil(&s.Contracts)
	emptyIfNil(&s.TimeEntries)
	emptyIfNil(&s.WorkSessions)
	emptyIfNil(&s.WorkSessionEvents)
	emptyIfNil(&s.Notifications)
	emptyIfNil(&s.ForumThreads)
	emptyIfNil(&s.ForumPosts)
	emptyIfNil(&s.ChatThreads)
	emptyIfNil(&s.ChatMessages)
	emptyIfNil(&s.Meetings)
	emptyIfNil(&s.Deadlines)
	emptyIfNil(&s.PtoEntries)
	emptyIfNil(&s.AuditLogs)
	emptyIfNil(&s.Skills)
	emptyIfNil(&s.UserSkills)
	emptyIfNil(&s.TenantFeatureFlags)
	if s.Features.Global == nil {
		s.Features.Global = map[string]bool{}
	}
	if s.Features.PerProject == nil {
		s.Features.PerProject = map[ProjectID]map[string]bool{}
	}
}

func emptyIfNil[T any](p *[]T) {
	if *p == nil {
		*p = []T{}
	}
}

// Clone returns a deep copy of s. The copy goes through JSON so it shares
// no slices, maps or pointers with s.
func (s *State) Clone() (*State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("clone state: %w", err)
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone state: %w", err)
	}
	out.Normalize()
	return &out, nil
}
