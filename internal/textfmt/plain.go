// Package textfmt renders model replies for terminals.
package textfmt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Renderer strips Markdown markup from text using a goldmark parser.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer that understands GFM tables and strikethrough.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

var defaultRenderer = NewRenderer()

// PlainText strips Markdown from s with the default Renderer.
func PlainText(s string) string {
	return defaultRenderer.PlainText(s)
}

// PlainText returns s without emphasis, heading markers, code fences, link
// targets or HTML. List items keep a "- " or "N. " marker and table rows
// become cells joined by " | ". Blocks are separated by one blank line.
func (r *Renderer) PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	source := []byte(s)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Blockquote, *ast.ThematicBreak:
			b.WriteString("\n\n")

		case *ast.List:
			if !hasListItemAncestor(node) {
				b.WriteString("\n\n")
			}

		case *ast.ListItem:
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", listDepth(node)-1))
			b.WriteString(listMarker(node))

		case *ast.Paragraph, *ast.TextBlock:
			if _, inItem := node.Parent().(*ast.ListItem); inItem {
				if node.PreviousSibling() != nil {
					b.WriteString("\n")
				}
			} else if _, inQuote := node.Parent().(*ast.Blockquote); !inQuote || node.PreviousSibling() != nil {
				b.WriteString("\n\n")
			}

		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString("\n")
			}

		case *ast.String:
			b.Write(node.Value)

		case *ast.AutoLink:
			b.Write(node.URL(source))
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b.WriteString("\n\n")
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(source))
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil

		case *east.Table:
			b.WriteString("\n\n")

		case *east.TableHeader, *east.TableRow:
			b.WriteString("\n")
			b.WriteString(tableRowText(node, source))
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	out := blankRuns.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

func hasListItemAncestor(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.ListItem); ok {
			return true
		}
	}
	return false
}

func listDepth(n ast.Node) int {
	depth := 0
	for p := ast.Node(n); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.ListItem); ok {
			depth++
		}
	}
	return depth
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "- "
	}

	pos := list.Start
	for s := item.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		pos++
	}
	return strconv.Itoa(pos) + ". "
}

func tableRowText(row ast.Node, source []byte) string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, strings.TrimSpace(inlineText(c, source)))
	}
	return strings.Join(cells, " | ")
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
