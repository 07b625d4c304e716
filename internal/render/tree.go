package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/commenttree"
	"github.com/salmonumbrella/storefront-cli/internal/output"
)

// Options controls text rendering of a discussion tree.
type Options struct {
	// MaxDepth caps indentation. Replies nested deeper are drawn at the cap
	// and prefixed with the name they answer. 0 means no cap.
	MaxDepth int
	// Width truncates comment text to this many runes. 0 means no limit.
	Width int
	// Color enables terminal styling.
	Color bool
}

var (
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	metaStyle   = lipgloss.NewStyle().Faint(true)
	ratingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Tree writes the forest as an indented bullet list.
func Tree(w io.Writer, forest commenttree.Forest[api.Comment], opts Options) error {
	var parents []*commenttree.Node[api.Comment]
	return forest.Walk(func(node *commenttree.Node[api.Comment], depth int) error {
		parents = append(parents[:depth], node)

		indent := depth
		var mention string
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			indent = opts.MaxDepth
			if name := parents[depth-1].Item.User.DisplayName(); name != "" {
				mention = "@" + name + " "
			}
		}

		line := strings.Repeat("  ", indent) + "- " + formatComment(node.Item, mention, opts) + "\n"
		_, err := io.WriteString(w, line)
		return err
	})
}

// formatComment renders "user #id 5★: text" for one comment.
func formatComment(c api.Comment, mention string, opts Options) string {
	style := func(s lipgloss.Style, text string) string {
		if !opts.Color || text == "" {
			return text
		}
		return s.Render(text)
	}

	var sb strings.Builder
	if name := c.User.DisplayName(); name != "" {
		sb.WriteString(style(authorStyle, name))
		sb.WriteString(" ")
	}
	sb.WriteString(style(metaStyle, "#"+c.ID.String()))
	if c.Rating != nil {
		sb.WriteString(" ")
		sb.WriteString(style(ratingStyle, fmt.Sprintf("%d★", *c.Rating)))
	}
	sb.WriteString(": ")
	sb.WriteString(mention)
	sb.WriteString(clip(c.Content, opts.Width))
	return sb.String()
}

// Rows flattens the forest into a table, one row per comment in
// depth-first order.
func Rows(forest commenttree.Forest[api.Comment]) output.Table {
	table := output.Table{Headers: []string{"DEPTH", "ID", "PARENT", "USER", "RATING", "CONTENT"}}
	_ = forest.Walk(func(node *commenttree.Node[api.Comment], depth int) error {
		c := node.Item
		rating := ""
		if c.Rating != nil {
			rating = fmt.Sprint(*c.Rating)
		}
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(depth),
			c.ID.String(),
			c.ParentID(),
			c.User.DisplayName(),
			rating,
			clip(c.Content, 60),
		})
		return nil
	})
	return table
}

// clip collapses whitespace and truncates to width runes.
func clip(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
