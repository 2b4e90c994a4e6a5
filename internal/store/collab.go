package store

import (
	"context"
	"sort"
	"strings"

	"github.com/alexanderramin/delegate/internal/domain"
)

// Notifications

// ListNotifications returns the user's notifications, newest first.
func (s *Store) ListNotifications(userID domain.UserID, unreadOnly bool) []domain.Notification {
	var out []domain.Notification
	s.view(func(st *domain.State) {
		out = notifications.list(st, func(n *domain.Notification) bool {
			return n.UserID == userID && (!unreadOnly || !n.IsRead)
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	err := s.mutate(ctx, "CreateNotification", map[string]any{"user_id": n.UserID}, func(st *domain.State) error {
		u, err := users.ref(st, n.UserID)
		if err != nil {
			return invalid(err)
		}
		if strings.TrimSpace(n.Title) == "" {
			return invalidf("notification title is required")
		}
		n.NotificationID = domain.Coalesce(n.NotificationID, domain.NotificationID(domain.NewID(domain.PrefixNotification)))
		n.TenantID = domain.Coalesce(n.TenantID, u.TenantID)
		if n.CreatedAt.IsZero() {
			n.CreatedAt = s.now()
		}
		notifications.insert(st, n)
		return nil
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id domain.NotificationID) error {
	return s.mutate(ctx, "MarkNotificationRead", map[string]any{"notification_id": id}, func(st *domain.State) error {
		_, err := notifications.update(st, id, func(n *domain.Notification) error {
			n.IsRead = true
			return nil
		}, nil)
		return err
	})
}

// MarkAllNotificationsRead marks every notification of userID read and
// returns how many changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID domain.UserID) (int, error) {
	changed := 0
	err := s.mutate(ctx, "MarkAllNotificationsRead", map[string]any{"user_id": userID}, func(st *domain.State) error {
		notifications.each(st, func(n *domain.Notification) {
			if n.UserID == userID && !n.IsRead {
				n.IsRead = true
				changed++
			}
		})
		return nil
	})
	return changed, err
}

// Forum

func (s *Store) ListForumThreads(tenantID domain.TenantID, projectID domain.ProjectID) []domain.ForumThread {
	var out []domain.ForumThread
	s.view(func(st *domain.State) {
		out = forumThreads.list(st, func(t *domain.ForumThread) bool {
			return (tenantID == "" || t.TenantID == tenantID) && (projectID == "" || optionalEquals(t.ProjectID, projectID))
		})
	})
	return out
}

func (s *Store) CreateForumThread(ctx context.Context, t domain.ForumThread) (domain.ForumThread, error) {
	err := s.mutate(ctx, "CreateForumThread", map[string]any{"tenant_id": t.TenantID}, func(st *domain.State) error {
		if strings.TrimSpace(t.Title) == "" {
			return invalidf("thread title is required")
		}
		u, err := users.ref(st, t.CreatedByUserID)
		if err != nil {
			return invalid(err)
		}
		if t.ProjectID != nil && !projects.exists(st, *t.ProjectID) {
			return invalidf("project %s does not exist", *t.ProjectID)
		}
		t.ForumThreadID = domain.Coalesce(t.ForumThreadID, domain.ForumThreadID(domain.NewID(domain.PrefixForumThread)))
		t.TenantID = domain.Coalesce(t.TenantID, u.TenantID)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.now()
		}
		forumThreads.insert(st, t)
		return nil
	})
	if err != nil {
		return domain.ForumThread{}, err
	}
	return detach(t), nil
}

func (s *Store) DeleteForumThread(ctx context.Context, id domain.ForumThreadID) error {
	return s.mutate(ctx, "DeleteForumThread", map[string]any{"thread_id": id}, func(st *domain.State) error {
		if !forumThreads.remove(st, id) {
			return forumThreads.notFound(id)
		}
		cascade(st, ref{kind: kindForumThread, id: string(id)})
		return nil
	})
}

func (s *Store) ListForumPosts(threadID domain.ForumThreadID) []domain.ForumPost {
	var out []domain.ForumPost
	s.view(func(st *domain.State) {
		out = forumPosts.list(st, func(p *domain.ForumPost) bool { return p.ForumThreadID == threadID })
	})
	return out
}

func (s *Store) AddForumPost(ctx context.Context, threadID domain.ForumThreadID, userID domain.UserID, body string) (domain.ForumPost, error) {
	var out domain.ForumPost
	err := s.mutate(ctx, "AddForumPost", map[string]any{"thread_id": threadID}, func(st *domain.State) error {
		t, err := forumThreads.ref(st, threadID)
		if err != nil {
			return err
		}
		if !users.exists(st, userID) {
			return invalidf("user %s does not exist", userID)
		}
		if strings.TrimSpace(body) == "" {
			return invalidf("post body is required")
		}
		out = domain.ForumPost{
			ForumPostID:   domain.ForumPostID(domain.NewID(domain.PrefixForumPost)),
			ForumThreadID: threadID,
			TenantID:      t.TenantID,
			UserID:        userID,
			Body:          body,
			CreatedAt:     s.now(),
		}
		forumPosts.insert(st, out)
		return nil
	})
	return out, err
}

// Chat

func (s *Store) ListChatThreads(userID domain.UserID) []domain.ChatThread {
	var out []domain.ChatThread
	s.view(func(st *domain.State) {
		out = chatThreads.list(st, func(c *domain.ChatThread) bool {
			return userID == "" || contains(c.MemberUserIDs, userID)
		})
	})
	return out
}

func (s *Store) CreateChatThread(ctx context.Context, c domain.ChatThread) (domain.ChatThread, error) {
	err := s.mutate(ctx, "CreateChatThread", map[string]any{"tenant_id": c.TenantID}, func(st *domain.State) error {
		if len(c.MemberUserIDs) == 0 {
			return invalidf("chat thread needs at least one member")
		}
		for _, id := range c.MemberUserIDs {
			if !users.exists(st, id) {
				return invalidf("member %s does not exist", id)
			}
		}
		c.ChatThreadID = domain.Coalesce(c.ChatThreadID, domain.ChatThreadID(domain.NewID(domain.PrefixChatThread)))
		if c.TenantID == "" {
			if u, err := users.ref(st, c.MemberUserIDs[0]); err == nil {
				c.TenantID = u.TenantID
			}
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.now()
		}
		chatThreads.insert(st, c)
		return nil
	})
	if err != nil {
		return domain.ChatThread{}, err
	}
	return detach(c), nil
}

func (s *Store) DeleteChatThread(ctx context.Context, id domain.ChatThreadID) error {
	return s.mutate(ctx, "DeleteChatThread", map[string]any{"thread_id": id}, func(st *domain.State) error {
		if !chatThreads.remove(st, id) {
			return chatThreads.notFound(id)
		}
		cascade(st, ref{kind: kindChatThread, id: string(id)})
		return nil
	})
}

func (s *Store) ListChatMessages(threadID domain.ChatThreadID) []domain.ChatMessage {
	var out []domain.ChatMessage
	s.view(func(st *domain.State) {
		out = chatMessages.list(st, func(m *domain.ChatMessage) bool { return m.ChatThreadID == threadID })
	})
	return out
}

// SendChatMessage posts to a thread; only members may post.
func (s *Store) SendChatMessage(ctx context.Context, threadID domain.ChatThreadID, userID domain.UserID, body string) (domain.ChatMessage, error) {
	var out domain.ChatMessage
	err := s.mutate(ctx, "SendChatMessage", map[string]any{"thread_id": threadID}, func(st *domain.State) error {
		c, err := chatThreads.ref(st, threadID)
		if err != nil {
			return err
		}
		if !contains(c.MemberUserIDs, userID) {
			return invalidf("user %s is not a member of chat %s", userID, threadID)
		}
		if strings.TrimSpace(body) == "" {
			return invalidf("message body is required")
		}
		out = domain.ChatMessage{
			ChatMessageID: domain.ChatMessageID(domain.NewID(domain.PrefixChatMessage)),
			ChatThreadID:  threadID,
			TenantID:      c.TenantID,
			UserID:        userID,
			Body:          body,
			CreatedAt:     s.now(),
		}
		chatMessages.insert(st, out)
		return nil
	})
	return out, err
}

// Meetings, deadlines and PTO

func (s *Store) ListMeetings(tenantID domain.TenantID) []domain.Meeting {
	var out []domain.Meeting
	s.view(func(st *domain.State) {
		out = meetings.list(st, func(m *domain.Meeting) bool { return tenantID == "" || m.TenantID == tenantID })
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsUtc.Before(out[j].StartsUtc) })
	return out
}

func (s *Store) CreateMeeting(ctx context.Context, m domain.Meeting) (domain.Meeting, error) {
	err := s.mutate(ctx, "CreateMeeting", map[string]any{"tenant_id": m.TenantID}, func(st *domain.State) error {
		if strings.TrimSpace(m.Title) == "" {
			return invalidf("meeting title is required")
		}
		if m.DurationMinutes < 0 {
			return invalidf("meeting duration must be >= 0")
		}
		if m.ProjectID != nil && !projects.exists(st, *m.ProjectID) {
			return invalidf("project %s does not exist", *m.ProjectID)
		}
		m.MeetingID = domain.Coalesce(m.MeetingID, domain.MeetingID(domain.NewID(domain.PrefixMeeting)))
		m.AttendeeUserIDs = domain.NonNil(m.AttendeeUserIDs)
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now()
		}
		meetings.insert(st, m)
		return nil
	})
	if err != nil {
		return domain.Meeting{}, err
	}
	return detach(m), nil
}

func (s *Store) DeleteMeeting(ctx context.Context, id domain.MeetingID) error {
	return s.mutate(ctx, "DeleteMeeting", map[string]any{"meeting_id": id}, func(st *domain.State) error {
		if !meetings.remove(st, id) {
			return meetings.notFound(id)
		}
		return nil
	})
}

// ListDeadlines returns deadlines ordered by due date.
func (s *Store) ListDeadlines(tenantID domain.TenantID) []domain.Deadline {
	var out []domain.Deadline
	s.view(func(st *domain.State) {
		out = deadlines.list(st, func(d *domain.Deadline) bool { return tenantID == "" || d.TenantID == tenantID })
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return out
}

func (s *Store) CreateDeadline(ctx context.Context, d domain.Deadline) (domain.Deadline, error) {
	err := s.mutate(ctx, "CreateDeadline", map[string]any{"tenant_id": d.TenantID}, func(st *domain.State) error {
		if strings.TrimSpace(d.Title) == "" || d.DueDate == "" {
			return invalidf("deadline title and due date are required")
		}
		if d.ProjectID != nil && !projects.exists(st, *d.ProjectID) {
			return invalidf("project %s does not exist", *d.ProjectID)
		}
		d.DeadlineID = domain.Coalesce(d.DeadlineID, domain.DeadlineID(domain.NewID(domain.PrefixDeadline)))
		if d.CreatedAt.IsZero() {
			d.CreatedAt = s.now()
		}
		deadlines.insert(st, d)
		return nil
	})
	if err != nil {
		return domain.Deadline{}, err
	}
	return detach(d), nil
}

func (s *Store) DeleteDeadline(ctx context.Context, id domain.DeadlineID) error {
	return s.mutate(ctx, "DeleteDeadline", map[string]any{"deadline_id": id}, func(st *domain.State) error {
		if !deadlines.remove(st, id) {
			return deadlines.notFound(id)
		}
		return nil
	})
}

func (s *Store) ListPto(userID domain.UserID) []domain.PtoEntry {
	var out []domain.PtoEntry
	s.view(func(st *domain.State) {
		out = ptoEntries.list(st, func(p *domain.PtoEntry) bool { return userID == "" || p.UserID == userID })
	})
	return out
}

func (s *Store) CreatePto(ctx context.Context, p domain.PtoEntry) (domain.PtoEntry, error) {
	err := s.mutate(ctx, "CreatePto", map[string]any{"user_id": p.UserID}, func(st *domain.State) error {
		u, err := users.ref(st, p.UserID)
		if err != nil {
			return invalid(err)
		}
		if p.StartDate == "" || p.EndDate == "" || p.EndDate < p.StartDate {
			return invalidf("PTO needs a start date on or before its end date")
		}
		p.PtoEntryID = domain.Coalesce(p.PtoEntryID, domain.PtoEntryID(domain.NewID(domain.PrefixPtoEntry)))
		p.TenantID = domain.Coalesce(p.TenantID, u.TenantID)
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now()
		}
		ptoEntries.insert(st, p)
		return nil
	})
	if err != nil {
		return domain.PtoEntry{}, err
	}
	return p, nil
}

func (s *Store) DeletePto(ctx context.Context, id domain.PtoEntryID) error {
	return s.mutate(ctx, "DeletePto", map[string]any{"pto_id": id}, func(st *domain.State) error {
		if !ptoEntries.remove(st, id) {
			return ptoEntries.notFound(id)
		}
		return nil
	})
}

// Skills

func (s *Store) ListSkills(tenantID domain.TenantID) []domain.Skill {
	var out []domain.Skill
	s.view(func(st *domain.State) {
		out = skills.list(st, func(k *domain.Skill) bool { return tenantID == "" || k.TenantID == tenantID })
	})
	return out
}

func (s *Store) CreateSkill(ctx context.Context, k domain.Skill) (domain.Skill, error) {
	err := s.mutate(ctx, "CreateSkill", map[string]any{"name": k.Name}, func(st *domain.State) error {
		if strings.TrimSpace(k.Name) == "" {
			return invalidf("skill name is required")
		}
		k.SkillID = domain.Coalesce(k.SkillID, domain.SkillID(domain.NewID(domain.PrefixSkill)))
		if k.CreatedAt.IsZero() {
			k.CreatedAt = s.now()
		}
		skills.insert(st, k)
		return nil
	})
	if err != nil {
		return domain.Skill{}, err
	}
	return k, nil
}

func (s *Store) DeleteSkill(ctx context.Context, id domain.SkillID) error {
	return s.mutate(ctx, "DeleteSkill", map[string]any{"skill_id": id}, func(st *domain.State) error {
		if !skills.remove(st, id) {
			return skills.notFound(id)
		}
		cascade(st, ref{kind: kindSkill, id: string(id)})
		return nil
	})
}

func (s *Store) ListUserSkills(userID domain.UserID) []domain.UserSkill {
	var out []domain.UserSkill
	s.view(func(st *domain.State) {
		out = userSkills.list(st, func(u *domain.UserSkill) bool { return userID == "" || u.UserID == userID })
	})
	return out
}

// SetUserSkill records a user's level in a skill, replacing any earlier
// level. Level 0 removes the skill from the user.
func (s *Store) SetUserSkill(ctx context.Context, userID domain.UserID, skillID domain.SkillID, level int) error {
	return s.mutate(ctx, "SetUserSkill", map[string]any{"user_id": userID, "skill_id": skillID}, func(st *domain.State) error {
		u, err := users.ref(st, userID)
		if err != nil {
			return invalid(err)
		}
		if !skills.exists(st, skillID) {
			return invalidf("skill %s does not exist", skillID)
		}
		if level < 0 || level > 5 {
			return invalidf("skill level must be between 0 and 5, got %d", level)
		}
		match := func(x *domain.UserSkill) bool { return x.UserID == userID && x.SkillID == skillID }
		if level == 0 {
			userSkills.removeWhere(st, match)
			return nil
		}
		updated := false
		userSkills.each(st, func(x *domain.UserSkill) {
			if match(x) {
				x.Level = level
				updated = true
			}
		})
		if !updated {
			userSkills.insert(st, domain.UserSkill{
				UserSkillID: domain.UserSkillID(domain.NewID(domain.PrefixUserSkill)),
				TenantID:    u.TenantID,
				UserID:      userID,
				SkillID:     skillID,
				Level:       level,
			})
		}
		return nil
	})
}

// Audit log

// ListAuditLogs returns the audit trail of tenantID, optionally narrowed to
// one entity, oldest first.
func (s *Store) ListAuditLogs(tenantID domain.TenantID, entityID string) []domain.AuditLog {
	var out []domain.AuditLog
	s.view(func(st *domain.State) {
		out = auditLogs.list(st, func(a *domain.AuditLog) bool {
			return (tenantID == "" || a.TenantID == tenantID) && (entityID == "" || a.EntityID == entityID)
		})
	})
	return out
}
