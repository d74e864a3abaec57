package governance

import (
	"strconv"

	"github.com/icn-covm/governance-vm/content"
)

// Comment is a content-addressable discussion entry forming a forest under
// ReplyTo: threaded discussion attached to a proposal, independent of its
// voting state.
type Comment struct {
	ID          string
	Author      string
	Timestamp   int64
	Content     string
	ReplyTo     *string
	Tags        []string
	Reactions   map[string]int
	Hidden      bool
	EditHistory []CommentEdit
}

type CommentEdit struct {
	Content   string
	Timestamp int64
}

// CommentForest indexes comments by id and by parent, for building reply
// trees under a proposal's comments/ key.
type CommentForest struct {
	byID     map[string]*Comment
	children map[string][]string
}

func NewCommentForest() *CommentForest {
	return &CommentForest{byID: make(map[string]*Comment), children: make(map[string][]string)}
}

// Add indexes c. If c.ID is empty, one is derived deterministically from
// the author, content, parent id and timestamp via BLAKE3 (content.DeriveID),
// matching how lifecycle.Executor.Create derives proposal ids.
func (f *CommentForest) Add(c Comment) {
	stored := c
	if stored.ID == "" {
		reply := ""
		if stored.ReplyTo != nil {
			reply = *stored.ReplyTo
		}
		stored.ID = content.DeriveID(stored.Author, stored.Content, reply, strconv.FormatInt(stored.Timestamp, 10))
	}
	f.byID[stored.ID] = &stored
	parent := ""
	if stored.ReplyTo != nil {
		parent = *stored.ReplyTo
	}
	f.children[parent] = append(f.children[parent], stored.ID)
}

func (f *CommentForest) Get(id string) (*Comment, bool) {
	c, ok := f.byID[id]
	return c, ok
}

// Edit appends a revision to a comment's edit history and updates its
// current content.
func (f *CommentForest) Edit(id, content string, timestamp int64) bool {
	c, ok := f.byID[id]
	if !ok {
		return false
	}
	c.EditHistory = append(c.EditHistory, CommentEdit{Content: c.Content, Timestamp: timestamp})
	c.Content = content
	return true
}

// Roots returns top-level comment ids (ReplyTo == nil) in insertion order.
func (f *CommentForest) Roots() []string {
	return append([]string(nil), f.children[""]...)
}

// Replies returns the direct replies to id in insertion order.
func (f *CommentForest) Replies(id string) []string {
	return append([]string(nil), f.children[id]...)
}
