package mcscrape

import (
	"encoding/json"
	"strings"
)

// NodeID identifies a node within a Tree. IDs are assigned in pre-order
// starting at 0 for the root, so they double as indexes into Tree.Nodes.
type NodeID int

// NoParent is the Parent value of the root node.
const NoParent NodeID = -1

// NodeKind is a coarse category for a content node.
type NodeKind string

// Node kinds.
const (
	KindText      NodeKind = "text"
	KindHeading   NodeKind = "heading"
	KindParagraph NodeKind = "paragraph"
	KindList      NodeKind = "list"
	KindListItem  NodeKind = "list_item"
	KindMedia     NodeKind = "media"
	KindLink      NodeKind = "link"
	KindInline    NodeKind = "inline"
	KindCode      NodeKind = "code"
	KindQuote     NodeKind = "quote"
	KindTable     NodeKind = "table"
	KindTableRow  NodeKind = "table_row"
	KindTableCell NodeKind = "table_cell"
	KindBreak     NodeKind = "break"
	KindContainer NodeKind = "container"
	KindOther     NodeKind = "other"
)

var tagKinds = map[string]NodeKind{
	"h1": KindHeading, "h2": KindHeading, "h3": KindHeading,
	"h4": KindHeading, "h5": KindHeading, "h6": KindHeading,
	"p":  KindParagraph,
	"ul": KindList, "ol": KindList, "dl": KindList,
	"li": KindListItem, "dt": KindListItem, "dd": KindListItem,
	"img": KindMedia, "picture": KindMedia, "video": KindMedia,
	"audio": KindMedia, "source": KindMedia,
	"a":    KindLink,
	"span": KindInline, "em": KindInline, "strong": KindInline, "b": KindInline,
	"i": KindInline, "u": KindInline, "small": KindInline, "sub": KindInline,
	"sup": KindInline, "mark": KindInline, "abbr": KindInline, "cite": KindInline,
	"time": KindInline, "s": KindInline, "del": KindInline, "ins": KindInline,
	"kbd": KindInline, "q": KindInline, "label": KindInline, "font": KindInline,
	"pre": KindCode, "code": KindCode, "samp": KindCode,
	"blockquote": KindQuote,
	"table":      KindTable,
	"tr":         KindTableRow,
	"td":         KindTableCell, "th": KindTableCell,
	"br": KindBreak, "hr": KindBreak,
	"body": KindContainer, "div": KindContainer, "section": KindContainer,
	"article": KindContainer, "main": KindContainer, "header": KindContainer,
	"footer": KindContainer, "nav": KindContainer, "aside": KindContainer,
	"figure": KindContainer, "figcaption": KindContainer, "details": KindContainer,
	"summary": KindContainer, "address": KindContainer, "center": KindContainer,
	"thead": KindContainer, "tbody": KindContainer, "tfoot": KindContainer,
	"caption": KindContainer,
}

// KindForTag returns the node kind for a lower-case HTML tag name.
// An empty tag denotes a text node.
func KindForTag(tag string) NodeKind {
	if tag == "" {
		return KindText
	}
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	return KindOther
}

// IsInline reports whether nodes of this kind flow inline with text.
func (k NodeKind) IsInline() bool {
	switch k {
	case KindText, KindInline, KindLink, KindBreak, KindMedia:
		return true
	}
	return false
}

// ContentNode is one element or text run of a segmented page.
type ContentNode struct {
	ID         NodeID
	Parent     NodeID
	Tag        string
	Kind       NodeKind
	Text       string
	Children   []NodeID
	Attributes map[string]string

	main bool
}

// IsMainContent reports whether the classifier marked this node as main content.
func (n *ContentNode) IsMainContent() bool {
	return n.main
}

// IsText reports whether n is a text run rather than an element.
func (n *ContentNode) IsText() bool {
	return n.Kind == KindText
}

// Tree is an arena of content nodes. Nodes[i].ID == i and the root is Nodes[0].
//
// The main-content flag can only be set. Once a node has been marked there is
// no way to clear it.
type Tree struct {
	Nodes []*ContentNode
}

// NewTree returns a tree with a single root element.
func NewTree(rootTag string, attrs map[string]string) *Tree {
	t := &Tree{}
	t.Nodes = append(t.Nodes, &ContentNode{
		ID:         0,
		Parent:     NoParent,
		Tag:        rootTag,
		Kind:       KindForTag(rootTag),
		Attributes: attrs,
	})
	return t
}

// AddElement appends an element under parent and returns its ID.
// Callers must add nodes in document order to keep IDs pre-ordered.
func (t *Tree) AddElement(parent NodeID, tag string, attrs map[string]string) NodeID {
	return t.add(parent, &ContentNode{Tag: tag, Kind: KindForTag(tag), Attributes: attrs})
}

// AddText appends a text run under parent and returns its ID.
func (t *Tree) AddText(parent NodeID, text string) NodeID {
	return t.add(parent, &ContentNode{Kind: KindText, Text: text})
}

func (t *Tree) add(parent NodeID, n *ContentNode) NodeID {
	id := NodeID(len(t.Nodes))
	n.ID = id
	n.Parent = parent
	t.Nodes = append(t.Nodes, n)
	if p := t.Node(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Nodes)
}

// Root returns the root node or nil for an empty tree.
func (t *Tree) Root() *ContentNode {
	return t.Node(0)
}

// Node returns the node with the given ID or nil if it is out of range.
func (t *Tree) Node(id NodeID) *ContentNode {
	if t == nil || id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return t.Nodes[id]
}

// MarkMainContent flags a single node as main content.
func (t *Tree) MarkMainContent(id NodeID) {
	if n := t.Node(id); n != nil {
		n.main = true
	}
}

// MarkSubtree flags id and all of its descendants as main content.
func (t *Tree) MarkSubtree(id NodeID) {
	stack := []NodeID{id}
	seen := make(map[NodeID]bool)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Node(cur)
		if n == nil || seen[cur] {
			continue
		}
		seen[cur] = true
		n.main = true
		stack = append(stack, n.Children...)
	}
}

// MarkAncestors flags every ancestor of id up to the root as main content.
func (t *Tree) MarkAncestors(id NodeID) {
	seen := make(map[NodeID]bool)
	n := t.Node(id)
	for n != nil && n.Parent != NoParent && !seen[n.Parent] {
		seen[n.Parent] = true
		n = t.Node(n.Parent)
		if n != nil {
			n.main = true
		}
	}
}

// HasMainContent reports whether any node is marked as main content.
func (t *Tree) HasMainContent() bool {
	if t == nil {
		return false
	}
	for _, n := range t.Nodes {
		if n.main {
			return true
		}
	}
	return false
}

// MainContentIDs returns the IDs of all marked nodes in ascending order.
func (t *Tree) MainContentIDs() []NodeID {
	if t == nil {
		return nil
	}
	var ids []NodeID
	for _, n := range t.Nodes {
		if n.main {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Walk visits nodes in pre-order starting at the root. Returning false from fn
// skips the node's descendants. Walk stops at structural defects; use
// Validate first when the tree did not come from a Segmenter.
func (t *Tree) Walk(fn func(n *ContentNode, depth int) bool) {
	if t.Len() == 0 {
		return
	}
	visited := make([]bool, len(t.Nodes))
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		n := t.Node(id)
		if n == nil || visited[id] {
			return
		}
		visited[id] = true
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(0, 0)
}

// Validate checks the arena for structural defects: misnumbered nodes,
// dangling child or parent references, and cycles.
func (t *Tree) Validate() error {
	if t.Len() == 0 {
		return nil
	}
	for i, n := range t.Nodes {
		if n == nil {
			return Errorf(EINVALID, "node %d is nil", i)
		}
		if n.ID != NodeID(i) {
			return Errorf(EINVALID, "node at index %d has id %d", i, n.ID)
		}
		if i == 0 {
			if n.Parent != NoParent {
				return Errorf(EINVALID, "root has parent %d", n.Parent)
			}
		} else if t.Node(n.Parent) == nil {
			return Errorf(EINVALID, "node %d has dangling parent %d", i, n.Parent)
		}
		for _, c := range n.Children {
			child := t.Node(c)
			if child == nil {
				return Errorf(EINVALID, "node %d has dangling child %d", i, c)
			}
			if child.Parent != n.ID {
				return Errorf(EINVALID, "node %d lists child %d whose parent is %d", i, c, child.Parent)
			}
		}
	}

	// Every node must be reached from the root exactly once.
	seen := make([]bool, len(t.Nodes))
	stack := []NodeID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return Errorf(EINVALID, "node %d reached twice", id)
		}
		seen[id] = true
		stack = append(stack, t.Nodes[id].Children...)
	}
	for i, ok := range seen {
		if !ok {
			return Errorf(EINVALID, "node %d unreachable from root", i)
		}
	}
	return nil
}

// OwnText returns the text of id's direct text children, space-joined.
func (t *Tree) OwnText(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	if n.IsText() {
		return strings.TrimSpace(n.Text)
	}
	var parts []string
	for _, c := range n.Children {
		if child := t.Node(c); child != nil && child.IsText() {
			if s := strings.TrimSpace(child.Text); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

// TextContent returns all descendant text of id with whitespace collapsed.
func (t *Tree) TextContent(id NodeID) string {
	var sb strings.Builder
	t.walkFrom(id, func(n *ContentNode) {
		if n.IsText() {
			sb.WriteString(n.Text)
		}
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

func (t *Tree) walkFrom(id NodeID, fn func(n *ContentNode)) {
	seen := make(map[NodeID]bool)
	var visit func(id NodeID)
	visit = func(id NodeID) {
		n := t.Node(id)
		if n == nil || seen[id] {
			return
		}
		seen[id] = true
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(id)
}

// Path returns the tag path from the root to id, e.g. "body>main>p".
func (t *Tree) Path(id NodeID) string {
	var tags []string
	seen := make(map[NodeID]bool)
	for n := t.Node(id); n != nil && !seen[n.ID]; n = t.Node(n.Parent) {
		seen[n.ID] = true
		tag := n.Tag
		if n.IsText() {
			tag = "#text"
		}
		tags = append(tags, tag)
	}
	for i, j := 0, len(tags)-1; i < j; i, j = i+1, j-1 {
		tags[i], tags[j] = tags[j], tags[i]
	}
	return strings.Join(tags, ">")
}

type nodeJSON struct {
	ID            NodeID            `json:"id"`
	Tag           string            `json:"tag,omitempty"`
	Kind          NodeKind          `json:"kind"`
	Text          string            `json:"text,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	IsMainContent bool              `json:"is_main_content"`
	Children      []*nodeJSON       `json:"children"`
}

// MarshalJSON encodes the tree in nested form rooted at node 0.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t.Len() == 0 {
		return []byte("null"), nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	var build func(id NodeID) *nodeJSON
	build = func(id NodeID) *nodeJSON {
		n := t.Nodes[id]
		out := &nodeJSON{
			ID:            n.ID,
			Tag:           n.Tag,
			Kind:          n.Kind,
			Text:          n.Text,
			Attributes:    n.Attributes,
			IsMainContent: n.main,
			Children:      make([]*nodeJSON, 0, len(n.Children)),
		}
		for _, c := range n.Children {
			out.Children = append(out.Children, build(c))
		}
		return out
	}
	return json.Marshal(build(0))
}

// Normalizer cleans raw HTML before segmentation.
type Normalizer interface {
	// Normalize removes non-content markup, resolves relative URLs against
	// baseURL and normalizes text. It is deterministic and idempotent.
	Normalize(rawHTML, baseURL string) (string, error)
}

// Segmenter converts cleaned HTML into a content node tree.
type Segmenter interface {
	// Segment mirrors the document body as a Tree with pre-order IDs.
	// No node is marked as main content.
	Segment(cleanedHTML string) (*Tree, error)
}
