// Package term holds the renderer-facing document model: a closed set of
// node variants assembled by the commands and flattened to styled text by
// one recursive render function. Styling is carried by an explicit Theme
// value; there is no process-wide color state.
package term

import (
	"fmt"
	"io"
	"strings"
)

type NodeKind int

const (
	NodeEmpty NodeKind = iota
	NodeText
	NodeLabel
	NodeIcon
	NodeSpacer
	NodeBlock
	NodeLines
	NodeGroup
)

type Icon int

const (
	IconNone Icon = iota
	IconArrowUp
	IconArrowDown
	IconCheck
	IconLock
	IconWarn
)

// Style selects a palette entry; the Theme decides what it looks like.
type Style int

const (
	StyleNone Style = iota
	StyleSuccess
	StyleError
	StyleWarning
	StyleDimmed
	StyleBranch
	StyleRemote
	StyleBold
)

// Node is one variant of the document tree. Which fields are meaningful
// depends on Kind: Text for NodeText/NodeLabel, Icon for NodeIcon,
// Children for NodeBlock/NodeLines, Title/Count/Children for NodeGroup.
type Node struct {
	Kind     NodeKind
	Text     string
	Icon     Icon
	Style    Style
	Title    string
	Count    int
	Children []Node
}

func Empty() Node                 { return Node{Kind: NodeEmpty} }
func Text(s string) Node          { return Node{Kind: NodeText, Text: s} }
func Label(s string) Node         { return Node{Kind: NodeLabel, Text: s} }
func Spacer() Node                { return Node{Kind: NodeSpacer} }
func IconNode(i Icon) Node        { return Node{Kind: NodeIcon, Icon: i} }
func Block(children ...Node) Node { return Node{Kind: NodeBlock, Children: children} }
func Lines(children ...Node) Node { return Node{Kind: NodeLines, Children: children} }

func Group(title string, count int, child Node) Node {
	return Node{Kind: NodeGroup, Title: title, Count: count, Children: []Node{child}}
}

func (n Node) WithStyle(s Style) Node {
	n.Style = s
	return n
}

// Render writes the flattened node tree.
func Render(w io.Writer, n Node, th Theme) error {
	_, err := io.WriteString(w, renderNode(n, th))
	return err
}

// Renderln renders the node followed by a newline.
func Renderln(w io.Writer, n Node, th Theme) error {
	_, err := io.WriteString(w, renderNode(n, th)+"\n")
	return err
}

// renderNode is the single recursive dispatch over the closed variant set.
func renderNode(n Node, th Theme) string {
	switch n.Kind {
	case NodeEmpty:
		return ""
	case NodeText:
		return th.paint(n.Style, n.Text)
	case NodeLabel:
		return th.paint(styleOr(n.Style, StyleDimmed), "("+n.Text+")")
	case NodeIcon:
		return th.paint(n.Style, th.glyph(n.Icon))
	case NodeSpacer:
		return " "
	case NodeBlock:
		var b strings.Builder
		for _, child := range n.Children {
			b.WriteString(renderNode(child, th))
		}
		return b.String()
	case NodeLines:
		parts := make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			parts = append(parts, renderNode(child, th))
		}
		return strings.Join(parts, "\n")
	case NodeGroup:
		var b strings.Builder
		b.WriteString(th.paint(StyleBold, n.Title))
		if n.Count > 0 {
			b.WriteString(" ")
			b.WriteString(th.paint(StyleDimmed, fmt.Sprintf("(%d)", n.Count)))
		}
		for _, child := range n.Children {
			if child.Kind == NodeEmpty {
				continue
			}
			b.WriteString("\n")
			b.WriteString(renderNode(child, th))
		}
		return b.String()
	default:
		return ""
	}
}

func styleOr(s, fallback Style) Style {
	if s == StyleNone {
		return fallback
	}
	return s
}
