package domain

import (
	"fmt"
	"strings"
	"time"
)

// WorkItemKind discriminates the two work item families.
type WorkItemKind string

const (
	KindAgile   WorkItemKind = "agile"
	KindPMI     WorkItemKind = "pmi"
	KindUnknown WorkItemKind = ""
)

// RACI lists who is responsible, accountable, consulted and informed.
type RACI struct {
	ResponsibleUserIDs []UserID `json:"responsibleUserIds"`
	AccountableUserID  *UserID  `json:"accountableUserId"`
	ConsultedUserIDs   []UserID `json:"consultedUserIds"`
	InformedUserIDs    []UserID `json:"informedUserIds"`
}

type Comment struct {
	UserID    UserID    `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkItemAudit is one entry in a work item's change history.
type WorkItemAudit struct {
	UserID    UserID    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type WorkItem struct {
	WorkItemID       WorkItemID      `json:"workItemId"`
	ProjectID        ProjectID       `json:"projectId"`
	WorkItemType     WorkItemType    `json:"workItemType"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Status           WorkItemStatus  `json:"status"`
	Priority         Priority        `json:"priority,omitempty"`
	Category         Category        `json:"category,omitempty"`
	ParentWorkItemID *WorkItemID     `json:"parentWorkItemId"`
	SprintID         *SprintID       `json:"sprintId"`
	StoryPoints      int             `json:"storyPoints,omitempty"`
	EstimateHours    float64         `json:"estimateHours,omitempty"`
	DueDate          string          `json:"dueDate,omitempty"`
	Tags             []string        `json:"tags"`
	DependencyIDs    []WorkItemID    `json:"dependencyIds"`
	RACI             RACI            `json:"raci"`
	Comments         []Comment       `json:"comments"`
	Audit            []WorkItemAudit `json:"audit"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// KindOf reports which family a work item type belongs to.
func KindOf(t WorkItemType) WorkItemKind {
	for _, a := range AgileTypes {
		if a == t {
			return KindAgile
		}
	}
	for _, p := range PMITypes {
		if p == t {
			return KindPMI
		}
	}
	return KindUnknown
}

func (w *WorkItem) Kind() WorkItemKind { return KindOf(w.WorkItemType) }

// Validate checks the required work item fields.
func (w *WorkItem) Validate() error {
	var problems []string
	if strings.TrimSpace(w.Title) == "" {
		problems = append(problems, "title is required")
	}
	if w.WorkItemType == "" {
		problems = append(problems, "work item type is required")
	} else if w.Kind() == KindUnknown {
		problems = append(problems, fmt.Sprintf("unknown work item type %q", w.WorkItemType))
	}
	if w.Status == "" {
		problems = append(problems, "status is required")
	} else if !ValidWorkItemStatuses[w.Status] {
		problems = append(problems, fmt.Sprintf("unknown status %q", w.Status))
	}
	if w.ProjectID == "" {
		problems = append(problems, "project ID is required")
	}
	if w.ParentWorkItemID != nil && *w.ParentWorkItemID == w.WorkItemID {
		problems = append(problems, "work item cannot be its own parent")
	}
	return joinProblems(problems)
}

type Sprint struct {
	SprintID  SprintID     `json:"sprintId"`
	ProjectID ProjectID    `json:"projectId"`
	Name      string       `json:"name"`
	Goal      string       `json:"goal,omitempty"`
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
	Status    SprintStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Role struct {
	RoleID       RoleID    `json:"roleId"`
	ProjectID    ProjectID `json:"projectId"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ParentRoleID *RoleID   `json:"parentRoleId"`
	IsLeadership bool      `json:"isLeadership"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RoleAssignment struct {
	AssignmentID RoleAssignmentID `json:"assignmentId"`
	ProjectID    ProjectID        `json:"projectId"`
	RoleID       RoleID           `json:"roleId"`
	UserID       UserID           `json:"userId"`
	AssignedAt   time.Time        `json:"assignedAt"`
}

type RaidEntry struct {
	RaidID            RaidID       `json:"raidId"`
	ProjectID         ProjectID    `json:"projectId"`
	Type              RaidType     `json:"type"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	Status            RaidStatus   `json:"status"`
	Severity          Severity     `json:"severity"`
	OwnerUserID       *UserID      `json:"ownerUserId"`
	LinkedWorkItemIDs []WorkItemID `json:"linkedWorkItemIds"`
	DueDate           string       `json:"dueDate,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// Mapping links one agile work item to one PMI work item for hybrid
// methodology coverage tracking.
type Mapping struct {
	MappingID       MappingID  `json:"mappingId"`
	ProjectID       ProjectID  `json:"projectId"`
	AgileWorkItemID WorkItemID `json:"agileWorkItemId"`
	PMIWorkItemID   WorkItemID `json:"pmiWorkItemId"`
	Notes           string     `json:"notes,omitempty"`
}

// References reports whether the mapping points at id on either side.
func (m *Mapping) References(id WorkItemID) bool {
	return m.AgileWorkItemID == id || m.PMIWorkItemID == id
}
