package feed

import (
	"strconv"

	"github.com/diffsolutions/samba-exporters/internal/category"
)

const itemElement = "ITEM"

// WriteCategoryTree writes every subtree below the root as nested ITEM
// elements. The walk keeps an explicit stack instead of recursing.
func WriteCategoryTree(w *Writer, tree *category.Tree, url func(id int64) string) error {
	type frame struct {
		children []int64
		next     int
	}
	stack := []frame{{children: tree.Children(tree.Root())}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.children) {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				if err := w.End(itemElement); err != nil {
					return err
				}
			}
			continue
		}
		id := top.children[top.next]
		top.next++
		node, _ := tree.Node(id)
		if err := w.Start(itemElement); err != nil {
			return err
		}
		if err := w.Element("ID", strconv.FormatInt(id, 10)); err != nil {
			return err
		}
		if err := w.Element("TITLE", node.Name); err != nil {
			return err
		}
		if url != nil {
			if err := w.Element("URL", url(id)); err != nil {
				return err
			}
		}
		if len(stack) == 1 {
			w.count++
		}
		stack = append(stack, frame{children: tree.Children(id)})
	}
	return nil
}
