package render

import (
	"fmt"
	"io"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/output"
)

// List writes comments one per line in the order given. Replies carry a
// "↳ #parent" marker instead of indentation.
func List(w io.Writer, comments []api.Comment, opts Options) error {
	for _, c := range comments {
		mention := ""
		if parent := c.ParentID(); parent != "" {
			mention = "↳ #" + parent + " "
		}
		if _, err := fmt.Fprintln(w, formatComment(c, mention, opts)); err != nil {
			return err
		}
	}
	return nil
}

// ListRows lays out comments as a flat table.
func ListRows(comments []api.Comment) output.Table {
	table := output.Table{Headers: []string{"ID", "PARENT", "USER", "RATING", "CREATED", "CONTENT"}}
	for _, c := range comments {
		rating := ""
		if c.Rating != nil {
			rating = fmt.Sprint(*c.Rating)
		}
		table.Rows = append(table.Rows, []string{
			c.ID.String(),
			c.ParentID(),
			c.User.DisplayName(),
			rating,
			c.CreatedAt,
			clip(c.Content, 60),
		})
	}
	return table
}
