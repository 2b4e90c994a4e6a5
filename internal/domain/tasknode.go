package domain

import (
	"fmt"
	"strings"
	"time"
)

// Contract is a tenant's billable engagement; task nodes hang off it.
type Contract struct {
	ContractID ContractID `json:"contractId"`
	TenantID   TenantID   `json:"tenantId"`
	Name       string     `json:"name"`
	Customer   string     `json:"customer,omitempty"`
	StartDate  string     `json:"startDate,omitempty"`
	EndDate    string     `json:"endDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TaskNode is one node of the hours tree. Only leaves carry hours that
// count toward a rollup.
type TaskNode struct {
	TaskNodeID       TaskNodeID  `json:"taskNodeId"`
	TenantID         TenantID    `json:"tenantId"`
	ContractID       *ContractID `json:"contractId"`
	ParentTaskNodeID *TaskNodeID `json:"parentTaskNodeId"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Status           TaskStatus  `json:"status"`
	ScopedHours      float64     `json:"scopedHours"`
	AllocatedHours   float64     `json:"allocatedHours"`
	DueDate          string      `json:"dueDate,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// Validate checks the required task node fields.
func (n *TaskNode) Validate() error {
	var problems []string
	if strings.TrimSpace(n.Title) == "" {
		problems = append(problems, "title is required")
	}
	if n.TenantID == "" {
		problems = append(problems, "tenant ID is required")
	}
	if n.ScopedHours < 0 {
		problems = append(problems, fmt.Sprintf("scoped hours must be >= 0, got %g", n.ScopedHours))
	}
	if n.AllocatedHours < 0 {
		problems = append(problems, fmt.Sprintf("allocated hours must be >= 0, got %g", n.AllocatedHours))
	}
	if n.ParentTaskNodeID != nil && *n.ParentTaskNodeID == n.TaskNodeID {
		problems = append(problems, "task node cannot be its own parent")
	}
	return joinProblems(problems)
}

// TaskAssignment joins a user to either a kanban task or a task node.
type TaskAssignment struct {
	TaskAssignmentID TaskAssignmentID `json:"taskAssignmentId"`
	TenantID         TenantID         `json:"tenantId"`
	UserID           UserID           `json:"userId"`
	TaskID           *TaskID          `json:"taskId"`
	TaskNodeID       *TaskNodeID      `json:"taskNodeId"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Validate requires a user and exactly one target.
func (a *TaskAssignment) Validate() error {
	var problems []string
	if a.UserID == "" {
		problems = append(problems, "user ID is required")
	}
	if (a.TaskID == nil) == (a.TaskNodeID == nil) {
		problems = append(problems, "exactly one of task ID or task node ID is required")
	}
	return joinProblems(problems)
}

// Rollup is the aggregated hours of a task node subtree.
type Rollup struct {
	ScopedHours    float64 `json:"scopedHours"`
	AllocatedHours float64 `json:"allocatedHours"`
	ChargedHours   float64 `json:"chargedHours"`
}

// Add returns the component-wise sum of r and o.
func (r Rollup) Add(o Rollup) Rollup {
	return Rollup{
		ScopedHours:    r.ScopedHours + o.ScopedHours,
		AllocatedHours: r.AllocatedHours + o.AllocatedHours,
		ChargedHours:   r.ChargedHours + o.ChargedHours,
	}
}

// Remaining is allocated minus charged hours, floored at zero.
func (r Rollup) Remaining() float64 {
	if d := r.AllocatedHours - r.ChargedHours; d > 0 {
		return d
	}
	return 0
}
