// Package etree encodes node trees as XML documents using beevik/etree.
package etree

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/beevik/etree"
	"github.com/fwojciec/mcscrape"
)

// Ensure Encoder implements mcscrape.TreeEncoder at compile time.
var _ mcscrape.TreeEncoder = (*Encoder)(nil)

// Encoder writes a tree as nested <node> elements. Text nodes become <text>
// elements carrying their content; attributes become <attr> children sorted
// by name. Output is not indented so whitespace-only text survives.
type Encoder struct{}

// NewEncoder creates a new Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeTree implements mcscrape.TreeEncoder.
func (e *Encoder) EncodeTree(tree *mcscrape.Tree) ([]byte, error) {
	if err := tree.Validate(); err != nil {
		return nil, mcscrape.WrapError(mcscrape.ERENDER, err, "malformed node tree: %s", mcscrape.ErrorMessage(err))
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("tree")
	if n := tree.Root(); n != nil {
		appendNode(tree, root, n)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, mcscrape.WrapError(mcscrape.ERENDER, err, "writing tree XML: %v", err)
	}
	return buf.Bytes(), nil
}

func appendNode(tree *mcscrape.Tree, parent *etree.Element, n *mcscrape.ContentNode) {
	if n.IsText() {
		el := parent.CreateElement("text")
		el.CreateAttr("id", strconv.Itoa(int(n.ID)))
		el.CreateAttr("main", strconv.FormatBool(n.IsMainContent()))
		el.SetText(n.Text)
		return
	}

	el := parent.CreateElement("node")
	el.CreateAttr("id", strconv.Itoa(int(n.ID)))
	el.CreateAttr("tag", n.Tag)
	el.CreateAttr("kind", string(n.Kind))
	el.CreateAttr("main", strconv.FormatBool(n.IsMainContent()))

	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attr := el.CreateElement("attr")
		attr.CreateAttr("name", k)
		attr.SetText(n.Attributes[k])
	}

	for _, id := range n.Children {
		appendNode(tree, el, tree.Node(id))
	}
}

// DecodeTree parses XML written by EncodeTree back into a tree.
func DecodeTree(data []byte) (*mcscrape.Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINVALID, err, "parsing tree XML: %v", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "tree" {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "missing <tree> root element")
	}
	top := root.SelectElement("node")
	if top == nil {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "tree has no root node")
	}

	tree := mcscrape.NewTree(top.SelectAttrValue("tag", ""), readAttrs(top))
	var main []mcscrape.NodeID
	if top.SelectAttrValue("main", "") == "true" {
		main = append(main, 0)
	}
	main = readChildren(tree, 0, top, main)
	for _, id := range main {
		tree.MarkMainContent(id)
	}
	return tree, nil
}

func readChildren(tree *mcscrape.Tree, parent mcscrape.NodeID, el *etree.Element, main []mcscrape.NodeID) []mcscrape.NodeID {
	for _, child := range el.ChildElements() {
		var id mcscrape.NodeID
		switch child.Tag {
		case "text":
			id = tree.AddText(parent, child.Text())
		case "node":
			id = tree.AddElement(parent, child.SelectAttrValue("tag", ""), readAttrs(child))
		default:
			continue
		}
		if child.SelectAttrValue("main", "") == "true" {
			main = append(main, id)
		}
		if child.Tag == "node" {
			main = readChildren(tree, id, child, main)
		}
	}
	return main
}

func readAttrs(el *etree.Element) map[string]string {
	var attrs map[string]string
	for _, a := range el.SelectElements("attr") {
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[a.SelectAttrValue("name", "")] = a.Text()
	}
	return attrs
}
