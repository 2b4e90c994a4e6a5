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

func eventTypes(events []domain.WorkSessionEvent) []domain.SessionEventType {
	out := make([]domain.SessionEventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestSession_StartPauseStopScenario(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	sess, err := ts.StartSession(ctx, testutil.WorkerID, nil)
	require.NoError(t, err)

	running := ts.ListSessions(store.SessionFilter{UserID: testutil.WorkerID})
	require.Len(t, running, 1)
	assert.Equal(t, domain.SessionRunning, running[0].State)

	ts.Clock.Advance(10 * time.Minute)
	paused, err := ts.PauseSession(ctx, sess.WorkSessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPaused, paused.State)
	assert.Equal(t, []domain.SessionEventType{domain.EventStart, domain.EventPause}, eventTypes(ts.SessionEvents(sess.WorkSessionID)))

	ts.Clock.Advance(5 * time.Minute)
	stopped, err := ts.StopSession(ctx, sess.WorkSessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, stopped.State)
	require.NotNil(t, stopped.StoppedUtc)
	assert.True(t, testutil.Epoch.Add(15*time.Minute).Equal(*stopped.StoppedUtc))

	_, active := ts.ActiveSession(testutil.WorkerID)
	assert.False(t, active)
}

func TestSession_OneActivePerUser(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	first, err := ts.StartSession(ctx, testutil.WorkerID, nil)
	require.NoError(t, err)

	_, err = ts.StartSession(ctx, testutil.WorkerID, nil)
	require.ErrorIs(t, err, store.ErrSessionActive)

	_, err = ts.PauseSession(ctx, first.WorkSessionID)
	require.NoError(t, err)
	_, err = ts.StartSession(ctx, testutil.WorkerID, nil)
	require.ErrorIs(t, err, store.ErrSessionActive, "a paused session still counts")

	// Other users are unaffected.
	_, err = ts.StartSession(ctx, testutil.AdminID, nil)
	require.NoError(t, err)

	_, err = ts.StopSession(ctx, first.WorkSessionID)
	require.NoError(t, err)
	_, err = ts.StartSession(ctx, testutil.WorkerID, nil)
	require.NoError(t, err)

	assert.Len(t, ts.ListSessions(store.SessionFilter{UserID: testutil.WorkerID}), 2)
	assert.Len(t, ts.ListSessions(store.SessionFilter{ActiveOnly: true}), 2)
}

func TestSession_InvalidSteps(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	sess, err := ts.StartSession(ctx, testutil.WorkerID, nil)
	require.NoError(t, err)

	_, err = ts.ResumeSession(ctx, sess.WorkSessionID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = ts.StopSession(ctx, sess.WorkSessionID)
	require.NoError(t, err)
	_, err = ts.PauseSession(ctx, sess.WorkSessionID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
	_, err = ts.StopSession(ctx, sess.WorkSessionID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	assert.Len(t, ts.SessionEvents(sess.WorkSessionID), 2, "failed steps record no event")

	_, err = ts.StartSession(ctx, "USER_missing", nil)
	assert.ErrorIs(t, err, store.ErrInvalid)
	missing := domain.TaskNodeID("NODE_missing")
	_, err = ts.StartSession(ctx, testutil.WorkerID, &missing)
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestSessionTiming_ExcludesPausesFromActive(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	sess, err := ts.StartSession(ctx, testutil.WorkerID, nil)
	require.NoError(t, err)
	ts.Clock.Advance(20 * time.Minute)
	_, err = ts.PauseSession(ctx, sess.WorkSessionID)
	require.NoError(t, err)
	ts.Clock.Advance(30 * time.Minute)
	_, err = ts.ResumeSession(ctx, sess.WorkSessionID)
	require.NoError(t, err)
	ts.Clock.Advance(10 * time.Minute)

	timing, err := ts.SessionTiming(sess.WorkSessionID)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Minute, timing.Elapsed)
	assert.Equal(t, 30*time.Minute, timing.Active)

	_, err = ts.SessionTiming("WS_missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStopSessionToTimeEntry(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	node, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("Support"))
	require.NoError(t, err)
	sess, err := ts.StartSession(ctx, testutil.WorkerID, &node.TaskNodeID)
	require.NoError(t, err)

	ts.Clock.Advance(45 * time.Minute)
	_, err = ts.PauseSession(ctx, sess.WorkSessionID)
	require.NoError(t, err)
	ts.Clock.Advance(15 * time.Minute)

	stopped, entry, err := ts.StopSessionToTimeEntry(ctx, sess.WorkSessionID, "")
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStopped, stopped.State)
	assert.Equal(t, domain.TimeEntryDraft, entry.State)
	assert.Equal(t, 45, entry.NetMinutes)
	assert.Equal(t, "2025-03-03", entry.WorkDate)
	require.NotNil(t, entry.TaskNodeID)
	assert.Equal(t, node.TaskNodeID, *entry.TaskNodeID)
	assert.Contains(t, entry.Notes, string(sess.WorkSessionID))

	events := eventTypes(ts.SessionEvents(sess.WorkSessionID))
	assert.Equal(t, []domain.SessionEventType{domain.EventStart, domain.EventPause, domain.EventStop}, events)

	_, _, err = ts.StopSessionToTimeEntry(ctx, sess.WorkSessionID, "")
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
	assert.Len(t, ts.ListTimeEntries(store.TimeEntryFilter{UserID: testutil.WorkerID}), 1)
}
