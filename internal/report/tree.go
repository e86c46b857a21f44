package report

import (
	"fmt"
	"io"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// PrintTree renders a directory Tree (built by session.Session's
// BuildDirectoryTree) as an indented ASCII tree. Rendering is kept
// separate from tree construction so other report formats can walk the
// same value differently.
func PrintTree(w io.Writer, tree *scanmodel.Tree) {
	if tree == nil || len(tree.Children) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDiscovered directories:\n")
	printChildren(w, tree, "  ")
}

func printChildren(w io.Writer, node *scanmodel.Tree, prefix string) {
	for i, child := range node.Children {
		isLast := i == len(node.Children)-1
		connector := "├── "
		next := prefix + "│   "
		if isLast {
			connector = "└── "
			next = prefix + "    "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, child.Name)
		printChildren(w, child, next)
	}
}
