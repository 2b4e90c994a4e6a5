package domain

import (
	"fmt"
	"strings"
	"time"
)

// Company is the single organization record at the root of the state.
type Company struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

type Tenant struct {
	TenantID  TenantID  `json:"tenantId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	TenantID    TenantID  `json:"tenantId"`
	UserID      UserID    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email,omitempty"`
	Role        UserRole  `json:"role"`
	PartyType   string    `json:"partyType,omitempty"`
	AvatarURL   *string   `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Step is one workflow stage of a project; steps double as kanban columns.
type Step struct {
	ID    StepID `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Project struct {
	ProjectID   ProjectID     `json:"projectId"`
	TenantID    TenantID      `json:"tenantId"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Customer    string        `json:"customer,omitempty"`
	Status      ProjectStatus `json:"status"`
	Methodology Methodology   `json:"methodologyMode"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"absoluteEndDate"`
	Description string        `json:"description"`
	Steps       []Step        `json:"steps"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// DefaultSteps returns the four workflow steps every new project starts with.
func DefaultSteps() []Step {
	return []Step{
		{ID: StepID(NewID(PrefixStep)), Name: "Backlog", Color: "slate"},
		{ID: StepID(NewID(PrefixStep)), Name: "In Progress", Color: "cyan"},
		{ID: StepID(NewID(PrefixStep)), Name: "Review", Color: "amber"},
		{ID: StepID(NewID(PrefixStep)), Name: "Done", Color: "emerald"},
	}
}

// FirstStep returns the first workflow step, used as the fallback column for
// tasks whose step disappears.
func (p *Project) FirstStep() (StepID, bool) {
	if len(p.Steps) == 0 {
		return "", false
	}
	return p.Steps[0].ID, true
}

// HasStep reports whether id names one of the project's workflow steps.
func (p *Project) HasStep(id StepID) bool {
	for _, s := range p.Steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Validate checks the required project fields.
func (p *Project) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "project name is required")
	}
	switch p.Methodology {
	case MethodologyAgile, MethodologyPMI, MethodologyHybrid:
	case "":
		problems = append(problems, "methodology mode is required")
	default:
		problems = append(problems, fmt.Sprintf("unknown methodology mode %q", p.Methodology))
	}
	seen := make(map[StepID]bool, len(p.Steps))
	for _, s := range p.Steps {
		if s.ID == "" {
			problems = append(problems, fmt.Sprintf("step %q has no id", s.Name))
			continue
		}
		if seen[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate step id %q", s.ID))
		}
		seen[s.ID] = true
	}
	return joinProblems(problems)
}

// Task is a kanban card living in one of its project's workflow steps.
type Task struct {
	TaskID          TaskID     `json:"taskId"`
	ProjectID       ProjectID  `json:"projectId"`
	TenantID        TenantID   `json:"tenantId"`
	ParentTaskID    *TaskID    `json:"parentTaskId"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	StatusStepID    StepID     `json:"statusStepId"`
	Status          TaskStatus `json:"status"`
	Priority        Priority   `json:"priority"`
	AssigneeUserIDs []UserID   `json:"assigneeUserIds"`
	DueDate         string     `json:"dueDate"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
}
