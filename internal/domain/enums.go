package domain

type WorkItemType string

const (
	// Agile
	WorkItemEpic  WorkItemType = "epic"
	WorkItemStory WorkItemType = "story"
	WorkItemTask  WorkItemType = "task"
	WorkItemBug   WorkItemType = "bug"

	// PMI
	WorkItemDeliverable WorkItemType = "deliverable"
	WorkItemWorkPackage WorkItemType = "workPackage"
	WorkItemActivity    WorkItemType = "activity"
	WorkItemMilestone   WorkItemType = "milestone"
)

// AgileTypes lists the agile-flavored work item types in display order.
var AgileTypes = []WorkItemType{WorkItemEpic, WorkItemStory, WorkItemTask, WorkItemBug}

// PMITypes lists the PMI-flavored work item types in display order.
var PMITypes = []WorkItemType{WorkItemDeliverable, WorkItemWorkPackage, WorkItemActivity, WorkItemMilestone}

type Methodology string

const (
	MethodologyAgile  Methodology = "agile"
	MethodologyPMI    Methodology = "pmi"
	MethodologyHybrid Methodology = "hybrid"
)

type WorkItemStatus string

const (
	StatusBacklog    WorkItemStatus = "Backlog"
	StatusReady      WorkItemStatus = "Ready"
	StatusInProgress WorkItemStatus = "In Progress"
	StatusBlocked    WorkItemStatus = "Blocked"
	StatusInReview   WorkItemStatus = "In Review"
	StatusDone       WorkItemStatus = "Done"
)

// ValidWorkItemStatuses is the canonical set of accepted work item statuses.
var ValidWorkItemStatuses = map[WorkItemStatus]bool{
	StatusBacklog: true, StatusReady: true, StatusInProgress: true,
	StatusBlocked: true, StatusInReview: true, StatusDone: true,
}

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "NotStarted"
	TaskInProgress TaskStatus = "InProgress"
	TaskBlocked    TaskStatus = "Blocked"
	TaskDone       TaskStatus = "Done"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// ValidPriorities is the canonical set of accepted priorities.
var ValidPriorities = map[Priority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityUrgent: true,
}

type Category string

const (
	CategoryScope        Category = "Scope"
	CategorySchedule     Category = "Schedule"
	CategoryCost         Category = "Cost"
	CategoryRisk         Category = "Risk"
	CategoryQuality      Category = "Quality"
	CategoryProcurement  Category = "Procurement"
	CategoryComms        Category = "Comms"
	CategoryStakeholders Category = "Stakeholders"
	CategoryOther        Category = "Other"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "Planning"
	ProjectActive    ProjectStatus = "Active"
	ProjectOnHold    ProjectStatus = "On Hold"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectCancelled ProjectStatus = "Cancelled"
)

type RaidType string

const (
	RaidRisk       RaidType = "risk"
	RaidAssumption RaidType = "assumption"
	RaidIssue      RaidType = "issue"
	RaidDecision   RaidType = "decision"
)

// ValidRaidTypes is the canonical set of accepted RAID entry types.
var ValidRaidTypes = map[RaidType]bool{
	RaidRisk: true, RaidAssumption: true, RaidIssue: true, RaidDecision: true,
}

type RaidStatus string

const (
	RaidOpen      RaidStatus = "Open"
	RaidWatching  RaidStatus = "Watching"
	RaidMitigated RaidStatus = "Mitigated"
	RaidClosed    RaidStatus = "Closed"
)

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

type SprintStatus string

const (
	SprintPlanned   SprintStatus = "Planned"
	SprintActive    SprintStatus = "Active"
	SprintCompleted SprintStatus = "Completed"
)

// UserRole is the coarse role a user holds inside their tenant. It drives
// advisory permission checks only.
type UserRole string

const (
	UserAdmin          UserRole = "Admin"
	UserProjectManager UserRole = "ProjectManager"
	UserApprover       UserRole = "Approver"
	UserWorker         UserRole = "Worker"
)
