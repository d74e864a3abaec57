package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentForestDerivesIDWhenBlank(t *testing.T) {
	f := NewCommentForest()
	f.Add(Comment{Author: "alice", Content: "first", Timestamp: 100})

	roots := f.Roots()
	require.Len(t, roots, 1)
	assert.NotEmpty(t, roots[0])
}

func TestCommentForestRepliesNestUnderParent(t *testing.T) {
	f := NewCommentForest()
	f.Add(Comment{ID: "root", Author: "alice", Content: "first"})
	parent := "root"
	f.Add(Comment{ID: "child", Author: "bob", Content: "reply", ReplyTo: &parent})

	assert.Equal(t, []string{"child"}, f.Replies("root"))
	assert.Equal(t, []string{"root"}, f.Roots())
}

func TestCommentForestEditAppendsHistory(t *testing.T) {
	f := NewCommentForest()
	f.Add(Comment{ID: "c1", Content: "v1"})
	require.True(t, f.Edit("c1", "v2", 42))

	c, ok := f.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "v2", c.Content)
	require.Len(t, c.EditHistory, 1)
	assert.Equal(t, "v1", c.EditHistory[0].Content)
}
