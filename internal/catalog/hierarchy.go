// Package catalog owns the product category hierarchy, the product to
// category assignments and the per-product tree view derived from them.
package catalog

import (
	"sort"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/models"
)

// ParentIndex maps every category id to its parent id (nil for roots).
type ParentIndex map[uint]*uint

func NewParentIndex(categories []models.ProductCategory) ParentIndex {
	idx := make(ParentIndex, len(categories))
	for _, c := range categories {
		idx[c.ID] = c.ParentID
	}
	return idx
}

// ValidateParent checks that node id may hang under parent. id is 0 for a
// category that does not exist yet.
func (idx ParentIndex) ValidateParent(id uint, parent *uint) error {
	if parent == nil {
		return nil
	}
	if _, ok := idx[*parent]; !ok {
		return apperr.Validation("parent category %d does not exist", *parent)
	}
	if id == 0 {
		return nil
	}
	if *parent == id {
		return apperr.Validation("category %d cannot be its own parent", id)
	}

	seen := map[uint]bool{}
	for cur := parent; cur != nil; cur = idx[*cur] {
		if *cur == id {
			return apperr.Validation("category %d cannot move under its descendant %d", id, *parent)
		}
		if seen[*cur] {
			break
		}
		seen[*cur] = true
	}
	return nil
}

// Descendants returns every category below id.
func (idx ParentIndex) Descendants(id uint) []uint {
	children := map[uint][]uint{}
	for child, parent := range idx {
		if parent != nil {
			children[*parent] = append(children[*parent], child)
		}
	}

	var out []uint
	seen := map[uint]bool{id: true}
	queue := []uint{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ch := range children[cur] {
			if seen[ch] {
				continue
			}
			seen[ch] = true
			out = append(out, ch)
			queue = append(queue, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type TreeNode struct {
	ID       uint        `json:"id"`
	Name     string      `json:"name"`
	ParentID *uint       `json:"parent_id"`
	Level    int         `json:"level"`
	Children []*TreeNode `json:"children"`
}

// BuildTree nests the flat category list. Nodes whose parent is missing are
// returned as roots; siblings are ordered by name.
func BuildTree(categories []models.ProductCategory) []*TreeNode {
	nodes := make(map[uint]*TreeNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &TreeNode{ID: c.ID, Name: c.Name, ParentID: c.ParentID, Children: []*TreeNode{}}
	}

	var roots []*TreeNode
	for _, c := range categories {
		n := nodes[c.ID]
		if c.ParentID != nil {
			if p, ok := nodes[*c.ParentID]; ok && *c.ParentID != c.ID {
				p.Children = append(p.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	var walk func(list []*TreeNode, level int, seen map[uint]bool) []*TreeNode
	walk = func(list []*TreeNode, level int, seen map[uint]bool) []*TreeNode {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Name == list[j].Name {
				return list[i].ID < list[j].ID
			}
			return list[i].Name < list[j].Name
		})
		kept := list[:0]
		for _, n := range list {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			n.Level = level
			n.Children = walk(n.Children, level+1, seen)
			kept = append(kept, n)
		}
		return kept
	}
	if roots == nil {
		return []*TreeNode{}
	}
	return walk(roots, 0, map[uint]bool{})
}

// Diff returns the ids to add and to remove to go from current to requested.
func Diff(current, requested []uint) (added, removed []uint) {
	cur := make(map[uint]bool, len(current))
	for _, id := range current {
		cur[id] = true
	}
	req := make(map[uint]bool, len(requested))
	for _, id := range requested {
		req[id] = true
		if !cur[id] {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if !req[id] {
			removed = append(removed, id)
		}
	}
	sortIDs(added)
	sortIDs(removed)
	return added, removed
}

// CheckDuplicates rejects a request that names the same category twice.
func CheckDuplicates(ids []uint) error {
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 {
			return apperr.Validation("category id must be positive")
		}
		if seen[id] {
			return apperr.Validation("category %d is listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

func sortIDs(ids []uint) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
