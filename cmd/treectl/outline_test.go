package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sortabletree/internal/domain/models"
)

func nested(id int64, title string, children ...*models.NestedNode) *models.NestedNode {
	return &models.NestedNode{Node: models.Node{ID: id, Title: title}, Children: children}
}

func TestRenderOutline(t *testing.T) {
	root := nested(1, "Book",
		nested(2, "Chapter 1",
			nested(4, "Scene A"),
			nested(5, "Scene B"),
		),
		nested(3, "Chapter 2",
			nested(6, "Scene C"),
		),
	)

	want := "Book (1)\n" +
		"├── Chapter 1 (2)\n" +
		"│   ├── Scene A (4)\n" +
		"│   └── Scene B (5)\n" +
		"└── Chapter 2 (3)\n" +
		"    └── Scene C (6)\n"
	assert.Equal(t, want, renderOutline(root))
}

func TestRenderOutline_Leaf(t *testing.T) {
	assert.Equal(t, "Notes (7)\n", renderOutline(nested(7, "Notes")))
}
