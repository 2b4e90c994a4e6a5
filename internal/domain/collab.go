package domain

import "time"

type Notification struct {
	NotificationID NotificationID `json:"notificationId"`
	TenantID       TenantID       `json:"tenantId"`
	UserID         UserID         `json:"userId"`
	Title          string         `json:"title"`
	Body           string         `json:"body,omitempty"`
	Link           string         `json:"link,omitempty"`
	IsRead         bool           `json:"isRead"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type ForumThread struct {
	ForumThreadID   ForumThreadID `json:"forumThreadId"`
	TenantID        TenantID      `json:"tenantId"`
	ProjectID       *ProjectID    `json:"projectId"`
	Title           string        `json:"title"`
	CreatedByUserID UserID        `json:"createdByUserId"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type ForumPost struct {
	ForumPostID   ForumPostID   `json:"forumPostId"`
	ForumThreadID ForumThreadID `json:"forumThreadId"`
	TenantID      TenantID      `json:"tenantId"`
	UserID        UserID        `json:"userId"`
	Body          string        `json:"body"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type ChatThread struct {
	ChatThreadID  ChatThreadID `json:"chatThreadId"`
	TenantID      TenantID     `json:"tenantId"`
	Name          string       `json:"name"`
	MemberUserIDs []UserID     `json:"memberUserIds"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type ChatMessage struct {
	ChatMessageID ChatMessageID `json:"chatMessageId"`
	ChatThreadID  ChatThreadID  `json:"chatThreadId"`
	TenantID      TenantID      `json:"tenantId"`
	UserID        UserID        `json:"userId"`
	Body          string        `json:"body"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type Meeting struct {
	MeetingID       MeetingID  `json:"meetingId"`
	TenantID        TenantID   `json:"tenantId"`
	ProjectID       *ProjectID `json:"projectId"`
	Title           string     `json:"title"`
	StartsUtc       time.Time  `json:"startsUtc"`
	DurationMinutes int        `json:"durationMinutes"`
	AttendeeUserIDs []UserID   `json:"attendeeUserIds"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type Deadline struct {
	DeadlineID DeadlineID `json:"deadlineId"`
	TenantID   TenantID   `json:"tenantId"`
	ProjectID  *ProjectID `json:"projectId"`
	Title      string     `json:"title"`
	DueDate    string     `json:"dueDate"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type PtoEntry struct {
	PtoEntryID PtoEntryID `json:"ptoEntryId"`
	TenantID   TenantID   `json:"tenantId"`
	UserID     UserID     `json:"userId"`
	StartDate  string     `json:"startDate"`
	EndDate    string     `json:"endDate"`
	Reason     string     `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// AuditLog records a state change performed through the store.
type AuditLog struct {
	AuditLogID AuditLogID `json:"auditLogId"`
	TenantID   TenantID   `json:"tenantId"`
	UserID     UserID     `json:"userId,omitempty"`
	EntityType string     `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Action     string     `json:"action"`
	Detail     string     `json:"detail,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Skill struct {
	SkillID   SkillID   `json:"skillId"`
	TenantID  TenantID  `json:"tenantId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserSkill struct {
	UserSkillID UserSkillID `json:"userSkillId"`
	TenantID    TenantID    `json:"tenantId"`
	UserID      UserID      `json:"userId"`
	SkillID     SkillID     `json:"skillId"`
	Level       int         `json:"level"`
}
