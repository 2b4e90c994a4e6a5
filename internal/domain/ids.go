package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Typed identifiers. Every entity ID is an opaque string carrying a type
// prefix (e.g. "PROJ_3f2a..."), so values are still readable in exported
// JSON while the compiler keeps foreign keys from being mixed up.
type (
	TenantID           string
	UserID             string
	ProjectID          string
	StepID             string
	TaskID             string
	TaskNodeID         string
	TaskAssignmentID   string
	WorkItemID         string
	SprintID           string
	RoleID             string
	RoleAssignmentID   string
	RaidID             string
	MappingID          string
	ContractID         string
	TimeEntryID        string
	WorkSessionID      string
	WorkSessionEventID string
	NotificationID     string
	ForumThreadID      string
	ForumPostID        string
	ChatThreadID       string
	ChatMessageID      string
	MeetingID          string
	DeadlineID         string
	PtoEntryID         string
	AuditLogID         string
	SkillID            string
	UserSkillID        string
)

// ID prefixes per entity type.
const (
	PrefixTenant           = "TEN"
	PrefixUser             = "USER"
	PrefixProject          = "PROJ"
	PrefixStep             = "STEP"
	PrefixTask             = "TASK"
	PrefixTaskNode         = "NODE"
	PrefixTaskAssignment   = "TASSIGN"
	PrefixWorkItem         = "WI"
	PrefixSprint           = "SPRINT"
	PrefixRole             = "ROLE"
	PrefixRoleAssignment   = "ASSIGN"
	PrefixRaid             = "RAID"
	PrefixMapping          = "MAP"
	PrefixContract         = "CON"
	PrefixTimeEntry        = "TE"
	PrefixWorkSession      = "WS"
	PrefixWorkSessionEvent = "WSE"
	PrefixNotification     = "NOTE"
	PrefixForumThread      = "FTHR"
	PrefixForumPost        = "FPOST"
	PrefixChatThread       = "CTHR"
	PrefixChatMessage      = "CMSG"
	PrefixMeeting          = "MEET"
	PrefixDeadline         = "DEAD"
	PrefixPtoEntry         = "PTO"
	PrefixAuditLog         = "AUDIT"
	PrefixSkill            = "SKILL"
	PrefixUserSkill        = "USKILL"
)

// NewID returns a globally unique identifier of the form PREFIX_<32 hex>.
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IDPrefix returns the type prefix of id, or "" when id carries none.
func IDPrefix(id string) string {
	if i := strings.IndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return ""
}
