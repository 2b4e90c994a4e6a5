package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
	"github.com/alexanderramin/delegate/internal/testutil"
)

func TestRollup_InternalHoursIgnored(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	parent, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("parent", testutil.WithHours(100, 100)))
	require.NoError(t, err)
	a, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("a", testutil.WithParentNode(parent.TaskNodeID), testutil.WithHours(2, 4)))
	require.NoError(t, err)
	_, err = ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("b", testutil.WithParentNode(parent.TaskNodeID), testutil.WithHours(3, 1)))
	require.NoError(t, err)

	r, err := ts.CalculateTaskRollup(parent.TaskNodeID)
	require.NoError(t, err)
	assert.InDelta(t, 5, r.ScopedHours, 1e-9)
	assert.InDelta(t, 5, r.AllocatedHours, 1e-9)
	assert.InDelta(t, 0, r.ChargedHours, 1e-9)

	leaf, err := ts.CalculateTaskRollup(a.TaskNodeID)
	require.NoError(t, err)
	assert.Equal(t, domain.Rollup{ScopedHours: 2, AllocatedHours: 4}, leaf)
}

func TestRollup_ChargedHoursCountPendingAndConcurred(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	root, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("root"))
	require.NoError(t, err)
	mid, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("mid", testutil.WithParentNode(root.TaskNodeID)))
	require.NoError(t, err)
	leaf, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("leaf", testutil.WithParentNode(mid.TaskNodeID), testutil.WithHours(8, 8)))
	require.NoError(t, err)

	book := func(minutes int, to ...domain.TimeEntryState) {
		e, err := ts.CreateTimeEntry(ctx, testutil.NewTestTimeEntry(testutil.WorkerID, minutes, testutil.OnNode(leaf.TaskNodeID)))
		require.NoError(t, err)
		for _, s := range to {
			_, err = ts.TransitionTimeEntry(ctx, e.TimeEntryID, s, testutil.ApproverID, "")
			require.NoError(t, err)
		}
	}
	book(60)
	book(90, domain.TimeEntryPending)
	book(120, domain.TimeEntryPending, domain.TimeEntryConcurred)
	book(600, domain.TimeEntryPending, domain.TimeEntryRejected)
	book(30, domain.TimeEntryPending, domain.TimeEntryReturned)

	assert.InDelta(t, 3.5, ts.ChargedHours(leaf.TaskNodeID), 1e-9)
	r, err := ts.CalculateTaskRollup(root.TaskNodeID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, r.ChargedHours, 1e-9)
	assert.InDelta(t, 4.5, r.Remaining(), 1e-9)
}

func TestRollup_CycleInStoredStateIsReported(t *testing.T) {
	node := func(id, parent domain.TaskNodeID) domain.TaskNode {
		n := domain.TaskNode{TaskNodeID: id, TenantID: testutil.TenantID, Title: string(id), ScopedHours: 1}
		if parent != "" {
			n.ParentTaskNodeID = &parent
		}
		return n
	}

	st := testutil.MinimalState()
	st.TaskNodes = []domain.TaskNode{node("NODE_root", ""), node("NODE_a", "NODE_root"), node("NODE_b", "NODE_a")}
	ts := testutil.NewTestStoreFrom(t, testutil.StaticSeed{State: st})
	r, err := ts.CalculateTaskRollup("NODE_root")
	require.NoError(t, err)
	assert.InDelta(t, 1, r.ScopedHours, 1e-9)

	// Imported data can carry a loop the write path would have refused.
	st = testutil.MinimalState()
	st.TaskNodes = []domain.TaskNode{node("NODE_x", "NODE_y"), node("NODE_y", "NODE_x")}
	ts = testutil.NewTestStoreFrom(t, testutil.StaticSeed{State: st})
	_, err = ts.CalculateTaskRollup("NODE_x")
	assert.ErrorIs(t, err, store.ErrCycle)
}

func TestUpdateTaskNode_ReparentUnderDescendantRejected(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	root, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("root"))
	require.NoError(t, err)
	child, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("child", testutil.WithParentNode(root.TaskNodeID)))
	require.NoError(t, err)
	grandchild, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("grandchild", testutil.WithParentNode(child.TaskNodeID)))
	require.NoError(t, err)

	_, err = ts.UpdateTaskNode(ctx, root.TaskNodeID, func(n *domain.TaskNode) error {
		n.ParentTaskNodeID = &grandchild.TaskNodeID
		return nil
	})
	require.ErrorIs(t, err, store.ErrCycle)

	_, err = ts.UpdateTaskNode(ctx, root.TaskNodeID, func(n *domain.TaskNode) error {
		n.ParentTaskNodeID = &root.TaskNodeID
		return nil
	})
	require.ErrorIs(t, err, store.ErrInvalid)

	got, _ := ts.FindTaskNode(root.TaskNodeID)
	assert.Nil(t, got.ParentTaskNodeID)
}

func TestDeleteTaskNode_ChildrenBecomeRoots(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	root, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("root"))
	require.NoError(t, err)
	child, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("child", testutil.WithParentNode(root.TaskNodeID)))
	require.NoError(t, err)
	sess, err := ts.StartSession(ctx, testutil.WorkerID, &root.TaskNodeID)
	require.NoError(t, err)

	require.NoError(t, ts.DeleteTaskNode(ctx, root.TaskNodeID))

	assertNoDangling(t, ts)
	roots := ts.ListTaskNodes(store.TaskNodeFilter{RootsOnly: true})
	require.Len(t, roots, 1)
	assert.Equal(t, child.TaskNodeID, roots[0].TaskNodeID)
	got, _ := ts.FindSession(sess.WorkSessionID)
	assert.Nil(t, got.TaskNodeID)
}

func TestAssignTask_Dedup(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	node, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("n"))
	require.NoError(t, err)

	first, err := ts.AssignTask(ctx, domain.TaskAssignment{UserID: testutil.WorkerID, TaskNodeID: &node.TaskNodeID})
	require.NoError(t, err)
	second, err := ts.AssignTask(ctx, domain.TaskAssignment{UserID: testutil.WorkerID, TaskNodeID: &node.TaskNodeID})
	require.NoError(t, err)
	assert.Equal(t, first.TaskAssignmentID, second.TaskAssignmentID)
	assert.Len(t, ts.ListTaskAssignments(store.TaskAssignmentFilter{TaskNodeID: node.TaskNodeID}), 1)

	_, err = ts.AssignTask(ctx, domain.TaskAssignment{UserID: testutil.WorkerID})
	assert.ErrorIs(t, err, store.ErrInvalid, "an assignment needs a target")
}
