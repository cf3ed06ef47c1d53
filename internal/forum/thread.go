package forum

import (
	"github.com/google/uuid"

	"applynest/internal/models"
)

// Node is a comment plus its direct replies, forming one tree of a
// thread forest.
type Node struct {
	*models.Comment
	Replies []*Node `json:"replies"`
}

// BuildForest assembles a flat comment slice into a forest of threads.
// The input is expected in ascending creation order; siblings keep that
// order, so replies read oldest first at every depth.
//
// A comment whose parent is absent from the input (it raced with a
// delete) is dropped entirely, never promoted to top level.
func BuildForest(comments []*models.Comment) []*Node {
	nodes := make(map[uuid.UUID]*Node, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &Node{Comment: c, Replies: []*Node{}}
	}

	roots := []*Node{}
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentCommentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentCommentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}
	return roots
}

// CountNodes reports the total number of comments in a forest.
func CountNodes(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + CountNodes(n.Replies)
	}
	return total
}
