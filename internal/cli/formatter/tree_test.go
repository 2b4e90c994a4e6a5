package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTree_OrdersDepthFirst(t *testing.T) {
	items := BuildTree([]TreeNode{
		{ID: "b", ParentID: "a", Item: TreeItem{Title: "B"}},
		{ID: "a", Item: TreeItem{Title: "A"}},
		{ID: "c", ParentID: "a", Item: TreeItem{Title: "C"}},
		{ID: "d", ParentID: "b", Item: TreeItem{Title: "D"}},
		{ID: "orphan", ParentID: "gone", Item: TreeItem{Title: "O"}},
	})

	var got []string
	for _, it := range items {
		got = append(got, strings.Repeat(".", it.Level)+it.Title)
	}
	assert.Equal(t, []string{"A", ".B", "..D", ".C", "O"}, got)
	assert.True(t, items[3].IsLast)
	assert.False(t, items[1].IsLast)
}

func TestBuildTree_LoopTerminates(t *testing.T) {
	items := BuildTree([]TreeNode{
		{ID: "x", ParentID: "y", Item: TreeItem{Title: "X"}},
		{ID: "y", ParentID: "x", Item: TreeItem{Title: "Y"}},
	})
	assert.Empty(t, items, "a pure loop has no root to start from")
}

func TestRenderTree(t *testing.T) {
	out := stripANSI(RenderTree([]TreeItem{
		{Title: "root", Detail: "3h"},
		{Title: "child", Level: 1, IsLast: true},
	}))
	assert.Equal(t, "root      [ 3h ]\n└─ child\n", out)
}
