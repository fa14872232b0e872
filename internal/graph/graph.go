// Package graph provides a read-only adjacency structure over the elements
// of one scan. Walks tolerate cyclic or self-referential parent data and
// always terminate.
package graph

import (
	"github.com/dotcommander/classlint/internal/types"
)

// Graph answers parent, child, ancestor and descendant queries.
type Graph struct {
	parents  map[string]string
	children map[string][]string
	tags     map[string]string
	order    []string
}

// New builds a Graph from a parent-id map (child -> parent) and the
// element snapshots, which supply tags and child order. Either argument
// may be nil.
func New(parents map[string]string, elements []types.ElementSnapshot) *Graph {
	g := &Graph{
		parents:  make(map[string]string, len(parents)),
		children: make(map[string][]string),
		tags:     make(map[string]string, len(elements)),
	}

	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			g.order = append(g.order, id)
		}
	}

	for _, el := range elements {
		add(el.ID)
		g.tags[el.ID] = el.TagName
		for _, child := range el.ChildrenIDs {
			g.linkChild(el.ID, child)
		}
		if el.ParentID != "" {
			if _, ok := g.parents[el.ID]; !ok {
				g.parents[el.ID] = el.ParentID
			}
		}
	}

	for child, parent := range parents {
		if parent == "" {
			continue
		}
		g.parents[child] = parent
		g.linkChild(parent, child)
	}
	for child, parent := range g.parents {
		add(child)
		add(parent)
	}
	return g
}

// FromElements builds a Graph from snapshots alone, deriving parents from
// each element's children list.
func FromElements(elements []types.ElementSnapshot) *Graph {
	parents := make(map[string]string)
	for _, el := range elements {
		for _, child := range el.ChildrenIDs {
			if _, ok := parents[child]; !ok {
				parents[child] = el.ID
			}
		}
	}
	return New(parents, elements)
}

func (g *Graph) linkChild(parent, child string) {
	if parent == "" || child == "" {
		return
	}
	for _, existing := range g.children[parent] {
		if existing == child {
			return
		}
	}
	g.children[parent] = append(g.children[parent], child)
}

// IDs returns every known element id in first-seen order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// GetParentID returns the parent id, or "" for roots and unknown ids.
func (g *Graph) GetParentID(id string) string {
	return g.parents[id]
}

// GetChildrenIDs returns the direct children of id in authored order.
func (g *Graph) GetChildrenIDs(id string) []string {
	return append([]string(nil), g.children[id]...)
}

// GetTag returns the tag name of id, or "" when unknown.
func (g *Graph) GetTag(id string) string {
	return g.tags[id]
}

// GetAncestorIDs returns ancestors nearest first. A cycle ends the walk.
func (g *Graph) GetAncestorIDs(id string) []string {
	var ancestors []string
	visited := map[string]bool{id: true}
	for cur := g.parents[id]; cur != "" && !visited[cur]; cur = g.parents[cur] {
		visited[cur] = true
		ancestors = append(ancestors, cur)
	}
	return ancestors
}

// GetDescendantIDs returns all descendants breadth first. Each id appears
// at most once, and id itself is never included.
func (g *Graph) GetDescendantIDs(id string) []string {
	var out []string
	visited := map[string]bool{id: true}
	queue := append([]string(nil), g.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, g.children[cur]...)
	}
	return out
}

// Depth returns the number of ancestors of id.
func (g *Graph) Depth(id string) int {
	return len(g.GetAncestorIDs(id))
}

// SiblingIDs returns the other children of id's parent.
func (g *Graph) SiblingIDs(id string) []string {
	parent := g.parents[id]
	if parent == "" {
		return nil
	}
	var out []string
	for _, c := range g.children[parent] {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}

// IsAncestor reports whether ancestor is above id.
func (g *Graph) IsAncestor(ancestor, id string) bool {
	for _, a := range g.GetAncestorIDs(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}
