package main

import (
	"fmt"
	"strings"

	"sortabletree/internal/domain/models"
)

// renderOutline draws a nested tree with box-drawing branches, one node per line:
//
//	Book (1)
//	├── Chapter 1 (2)
//	│   └── Scene A (4)
//	└── Chapter 2 (3)
func renderOutline(root *models.NestedNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n", root.Title, root.ID)
	renderChildren(&b, root.Children, "")
	return b.String()
}

func renderChildren(b *strings.Builder, children []*models.NestedNode, prefix string) {
	for i, c := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprintf(b, "%s%s%s (%d)\n", prefix, branch, c.Title, c.ID)
		renderChildren(b, c.Children, prefix+next)
	}
}
