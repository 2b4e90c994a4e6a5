package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
	"github.com/alexanderramin/delegate/internal/testutil"
)

func TestNotifications_NewestFirstAndMarkRead(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	older, err := ts.CreateNotification(ctx, domain.Notification{UserID: testutil.WorkerID, Title: "first"})
	require.NoError(t, err)
	assert.Equal(t, testutil.TenantID, older.TenantID)
	ts.Clock.Advance(time.Minute)
	_, err = ts.CreateNotification(ctx, domain.Notification{UserID: testutil.WorkerID, Title: "second"})
	require.NoError(t, err)
	_, err = ts.CreateNotification(ctx, domain.Notification{UserID: testutil.AdminID, Title: "other"})
	require.NoError(t, err)

	list := ts.ListNotifications(testutil.WorkerID, false)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)

	require.NoError(t, ts.MarkNotificationRead(ctx, older.NotificationID))
	assert.Len(t, ts.ListNotifications(testutil.WorkerID, true), 1)

	n, err := ts.MarkAllNotificationsRead(ctx, testutil.WorkerID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, ts.ListNotifications(testutil.WorkerID, true))
	assert.Len(t, ts.ListNotifications(testutil.AdminID, true), 1)

	_, err = ts.CreateNotification(ctx, domain.Notification{UserID: "USER_missing", Title: "x"})
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = ts.CreateNotification(ctx, domain.Notification{UserID: testutil.WorkerID})
	assert.ErrorIs(t, err, store.ErrInvalid)
	assert.ErrorIs(t, ts.MarkNotificationRead(ctx, "NOTIF_missing"), store.ErrNotFound)
}

func TestForum_ThreadsAndPosts(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p := newProject(t, ts, "P")

	general, err := ts.CreateForumThread(ctx, domain.ForumThread{Title: "General", CreatedByUserID: testutil.AdminID})
	require.NoError(t, err)
	assert.Equal(t, testutil.TenantID, general.TenantID)
	scoped, err := ts.CreateForumThread(ctx, domain.ForumThread{Title: "Kickoff", CreatedByUserID: testutil.AdminID, ProjectID: &p.ProjectID})
	require.NoError(t, err)

	assert.Len(t, ts.ListForumThreads(testutil.TenantID, ""), 2)
	assert.Len(t, ts.ListForumThreads("", p.ProjectID), 1)

	_, err = ts.AddForumPost(ctx, scoped.ForumThreadID, testutil.WorkerID, "hello")
	require.NoError(t, err)
	_, err = ts.AddForumPost(ctx, scoped.ForumThreadID, testutil.WorkerID, " ")
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = ts.AddForumPost(ctx, scoped.ForumThreadID, "USER_missing", "hi")
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = ts.AddForumPost(ctx, "FT_missing", testutil.WorkerID, "hi")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Len(t, ts.ListForumPosts(scoped.ForumThreadID), 1)

	require.NoError(t, ts.DeleteForumThread(ctx, scoped.ForumThreadID))
	assert.Empty(t, ts.ListForumPosts(scoped.ForumThreadID))
	assertNoDangling(t, ts)
}

func TestChat_MembersOnly(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	c, err := ts.CreateChatThread(ctx, domain.ChatThread{Name: "pair", MemberUserIDs: []domain.UserID{testutil.WorkerID, testutil.ApproverID}})
	require.NoError(t, err)
	assert.Equal(t, testutil.TenantID, c.TenantID)

	_, err = ts.SendChatMessage(ctx, c.ChatThreadID, testutil.WorkerID, "ping")
	require.NoError(t, err)
	_, err = ts.SendChatMessage(ctx, c.ChatThreadID, testutil.AdminID, "let me in")
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = ts.SendChatMessage(ctx, c.ChatThreadID, testutil.ApproverID, "")
	assert.ErrorIs(t, err, store.ErrInvalid)

	assert.Len(t, ts.ListChatMessages(c.ChatThreadID), 1)
	assert.Len(t, ts.ListChatThreads(testutil.WorkerID), 1)
	assert.Empty(t, ts.ListChatThreads(testutil.AdminID))

	_, err = ts.CreateChatThread(ctx, domain.ChatThread{Name: "empty"})
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = ts.CreateChatThread(ctx, domain.ChatThread{Name: "ghost", MemberUserIDs: []domain.UserID{"USER_missing"}})
	assert.ErrorIs(t, err, store.ErrInvalid)

	require.NoError(t, ts.DeleteChatThread(ctx, c.ChatThreadID))
	assert.Empty(t, ts.ListChatMessages(c.ChatThreadID))
}

func TestCalendar_MeetingsDeadlinesPto(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	late, err := ts.CreateMeeting(ctx, domain.Meeting{TenantID: testutil.TenantID, Title: "Retro", StartsUtc: testutil.Epoch.Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.NotNil(t, late.AttendeeUserIDs)
	_, err = ts.CreateMeeting(ctx, domain.Meeting{TenantID: testutil.TenantID, Title: "Standup", StartsUtc: testutil.Epoch, DurationMinutes: 15})
	require.NoError(t, err)
	meetings := ts.ListMeetings(testutil.TenantID)
	require.Len(t, meetings, 2)
	assert.Equal(t, "Standup", meetings[0].Title)

	_, err = ts.CreateMeeting(ctx, domain.Meeting{Title: "Neg", DurationMinutes: -1})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = ts.CreateDeadline(ctx, domain.Deadline{TenantID: testutil.TenantID, Title: "Go live", DueDate: "2025-06-30"})
	require.NoError(t, err)
	_, err = ts.CreateDeadline(ctx, domain.Deadline{TenantID: testutil.TenantID, Title: "Beta", DueDate: "2025-04-01"})
	require.NoError(t, err)
	deadlines := ts.ListDeadlines(testutil.TenantID)
	require.Len(t, deadlines, 2)
	assert.Equal(t, "Beta", deadlines[0].Title)
	_, err = ts.CreateDeadline(ctx, domain.Deadline{Title: "No date"})
	assert.ErrorIs(t, err, store.ErrInvalid)

	pto, err := ts.CreatePto(ctx, domain.PtoEntry{UserID: testutil.WorkerID, StartDate: "2025-07-01", EndDate: "2025-07-01"})
	require.NoError(t, err)
	assert.Equal(t, testutil.TenantID, pto.TenantID)
	_, err = ts.CreatePto(ctx, domain.PtoEntry{UserID: testutil.WorkerID, StartDate: "2025-07-05", EndDate: "2025-07-01"})
	assert.ErrorIs(t, err, store.ErrInvalid)
	assert.Len(t, ts.ListPto(testutil.WorkerID), 1)

	require.NoError(t, ts.DeletePto(ctx, pto.PtoEntryID))
	assert.ErrorIs(t, ts.DeletePto(ctx, pto.PtoEntryID), store.ErrNotFound)
}

func TestSetUserSkill_Levels(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	k, err := ts.CreateSkill(ctx, domain.Skill{TenantID: testutil.TenantID, Name: "Go"})
	require.NoError(t, err)

	require.NoError(t, ts.SetUserSkill(ctx, testutil.WorkerID, k.SkillID, 3))
	require.NoError(t, ts.SetUserSkill(ctx, testutil.WorkerID, k.SkillID, 5))
	got := ts.ListUserSkills(testutil.WorkerID)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Level)

	for _, level := range []int{-1, 6} {
		assert.ErrorIs(t, ts.SetUserSkill(ctx, testutil.WorkerID, k.SkillID, level), store.ErrInvalid)
	}
	assert.ErrorIs(t, ts.SetUserSkill(ctx, testutil.WorkerID, "SKILL_missing", 1), store.ErrInvalid)

	require.NoError(t, ts.SetUserSkill(ctx, testutil.WorkerID, k.SkillID, 0))
	assert.Empty(t, ts.ListUserSkills(testutil.WorkerID))

	require.NoError(t, ts.SetUserSkill(ctx, testutil.AdminID, k.SkillID, 2))
	require.NoError(t, ts.DeleteSkill(ctx, k.SkillID))
	assert.Empty(t, ts.ListUserSkills(""))
}
