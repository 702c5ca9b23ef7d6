// Package category flattens the catalog category hierarchy into named paths.
package category

import (
	"fmt"
	"strings"
)

// Node is one category row.
type Node struct {
	ID       int64
	ParentID int64
	Name     string
	IsRoot   bool
}

// StructuralError reports a malformed category graph.
type StructuralError struct {
	Reason string
	IDs    []int64
}

func (e *StructuralError) Error() string {
	if len(e.IDs) == 0 {
		return "category tree: " + e.Reason
	}
	return fmt.Sprintf("category tree: %s %v", e.Reason, e.IDs)
}

// Tree is a category arena indexed by id, rooted at the single root category.
type Tree struct {
	root     int64
	nodes    map[int64]Node
	children map[int64][]int64
	paths    map[int64][]string
	order    []int64
}

// Build indexes nodes and walks the hierarchy from the root with an explicit
// stack. Exactly one root is required and the parent graph must be acyclic.
// Nodes that are not descendants of the root are left out of the tree.
func Build(nodes []Node) (*Tree, error) {
	t := &Tree{
		nodes:    make(map[int64]Node, len(nodes)),
		children: make(map[int64][]int64),
		paths:    make(map[int64][]string, len(nodes)),
	}
	var roots []int64
	for _, n := range nodes {
		if _, dup := t.nodes[n.ID]; dup {
			return nil, &StructuralError{Reason: "duplicate category id", IDs: []int64{n.ID}}
		}
		t.nodes[n.ID] = n
		t.children[n.ParentID] = append(t.children[n.ParentID], n.ID)
		if n.IsRoot {
			roots = append(roots, n.ID)
		}
	}
	switch len(roots) {
	case 0:
		return nil, &StructuralError{Reason: "missing root category"}
	case 1:
		t.root = roots[0]
	default:
		return nil, &StructuralError{Reason: "more than one root category", IDs: roots}
	}

	visited := map[int64]bool{t.root: true}
	t.paths[t.root] = nil
	stack := reverse(t.children[t.root])
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			return nil, &StructuralError{Reason: "cycle through category", IDs: []int64{id}}
		}
		visited[id] = true
		n := t.nodes[id]
		parent := t.paths[n.ParentID]
		path := make([]string, len(parent), len(parent)+1)
		copy(path, parent)
		t.paths[id] = append(path, n.Name)
		t.order = append(t.order, id)
		stack = append(stack, reverse(t.children[id])...)
	}

	for id := range t.nodes {
		if visited[id] {
			continue
		}
		if cycle := t.cycleFrom(id); len(cycle) > 0 {
			return nil, &StructuralError{Reason: "cycle in category parents", IDs: cycle}
		}
	}
	return t, nil
}

// cycleFrom follows parent links from id and returns the ids on a loop, if any.
func (t *Tree) cycleFrom(id int64) []int64 {
	seen := make(map[int64]int)
	var chain []int64
	cur := id
	for {
		if idx, ok := seen[cur]; ok {
			return chain[idx:]
		}
		n, ok := t.nodes[cur]
		if !ok {
			return nil
		}
		seen[cur] = len(chain)
		chain = append(chain, cur)
		cur = n.ParentID
	}
}

func reverse(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// Root returns the root category id.
func (t *Tree) Root() int64 { return t.root }

// Node returns a category by id.
func (t *Tree) Node(id int64) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Children returns the direct children of id in load order.
func (t *Tree) Children(id int64) []int64 {
	return t.children[id]
}

// Order returns every category under the root in depth-first pre-order.
func (t *Tree) Order() []int64 { return t.order }

// Path returns category names from the first level below the root down to id.
// A nil tree knows no paths.
func (t *Tree) Path(id int64) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.paths[id]
	if !ok || id == t.root {
		return nil, false
	}
	return p, true
}

// Text joins the path of id with sep. Unknown ids yield an empty string.
func (t *Tree) Text(id int64, sep string) string {
	p, ok := t.Path(id)
	if !ok {
		return ""
	}
	return strings.Join(p, sep)
}
