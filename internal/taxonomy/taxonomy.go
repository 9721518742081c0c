// Package taxonomy turns the flat category table into the two-level category
// tree and guards the parent invariant that keeps it two levels deep.
package taxonomy

import (
	"iter"
	"sort"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// PathSeparator joins a parent and child name in a full path.
const PathSeparator = ":"

// Node is one category in the derived tree.
type Node struct {
	Category         models.Category `json:"category"`
	Depth            int             `json:"depth"`
	FullPath         string          `json:"full_path"`
	TransactionCount int64           `json:"transaction_count"`
	Children         []*Node         `json:"children,omitempty"`
}

// Build derives the tree from a flat slice of categories. Siblings are ordered
// by creation time, then id. counts maps category id to transaction count and
// may be nil. Categories whose parent is missing from cats are placed at the
// top level.
func Build(cats []models.Category, counts map[uint]int64) []*Node {
	ordered := make([]models.Category, len(cats))
	copy(ordered, cats)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	byID := make(map[uint]*Node, len(ordered))
	for _, c := range ordered {
		byID[c.ID] = &Node{Category: c, TransactionCount: counts[c.ID]}
	}

	var roots []*Node
	for _, c := range ordered {
		node := byID[c.ID]
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok && parent.Category.ParentID == nil {
				node.Depth = 1
				node.FullPath = parent.Category.Name + PathSeparator + c.Name
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		node.FullPath = c.Name
		roots = append(roots, node)
	}
	return roots
}

// Flatten yields every node of the tree in pre-order: a parent before its
// children, siblings in tree order. The sequence can be ranged over any
// number of times.
func Flatten(roots []*Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(nodes []*Node) bool
		walk = func(nodes []*Node) bool {
			for _, n := range nodes {
				if !yield(n) {
					return false
				}
				if !walk(n.Children) {
					return false
				}
			}
			return true
		}
		walk(roots)
	}
}

// Paths maps every category id in the tree to its full path.
func Paths(roots []*Node) map[uint]string {
	paths := make(map[uint]string)
	for n := range Flatten(roots) {
		paths[n.Category.ID] = n.FullPath
	}
	return paths
}

// Descendants returns id followed by the ids of its direct subcategories.
func Descendants(cats []models.Category, id uint) []uint {
	ids := []uint{id}
	for _, c := range cats {
		if c.ParentID != nil && *c.ParentID == id {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ValidateParent checks that categoryID (0 for a new category) may be placed
// under parentID. The parent must exist, be top-level and differ from the
// category itself, and a category that already has subcategories cannot
// become a child.
func ValidateParent(cats []models.Category, categoryID uint, parentID uint) error {
	if parentID == categoryID && categoryID != 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidParent, "A category cannot be its own parent")
	}

	var parent *models.Category
	for i := range cats {
		if cats[i].ID == parentID {
			parent = &cats[i]
			break
		}
	}
	if parent == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidParent, "Parent category does not exist")
	}
	if !parent.IsTopLevel() {
		return apperrors.WithMessage(apperrors.ErrInvalidParent, "Parent must be a top-level category")
	}

	if categoryID != 0 {
		for _, c := range cats {
			if c.ParentID != nil && *c.ParentID == categoryID {
				return apperrors.WithMessage(apperrors.ErrInvalidParent, "A category with subcategories cannot be moved under another category")
			}
		}
	}
	return nil
}
