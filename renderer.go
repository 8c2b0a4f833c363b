package mcscrape

// Renderer serializes the main-content portion of a tree.
type Renderer interface {
	// Render returns HTML and Markdown built from main-content nodes only.
	// Both are empty when nothing is marked. Structural defects in the tree
	// return ERENDER.
	Render(tree *Tree) (html, markdown string, err error)
}

// TreeEncoder serializes a whole node tree, main-content flags included,
// into an artifact format.
type TreeEncoder interface {
	EncodeTree(tree *Tree) ([]byte, error)
}
