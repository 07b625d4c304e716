package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/commenttree"
	"github.com/salmonumbrella/storefront-cli/internal/output"
	"github.com/salmonumbrella/storefront-cli/internal/render"
)

// productThread is the reply forest built for one product.
type productThread struct {
	ProductID string                          `json:"product_id,omitempty"`
	Kind      api.Kind                        `json:"kind,omitempty"`
	Count     int                             `json:"count"`
	Roots     commenttree.Forest[api.Comment] `json:"roots"`

	report commenttree.Report
}

func newProductThread(productID string, kind api.Kind, comments []api.Comment) productThread {
	forest, report := commenttree.BuildWithReport(comments, api.TreeKey)
	if forest == nil {
		forest = commenttree.Forest[api.Comment]{}
	}
	return productThread{
		ProductID: productID,
		Kind:      kind,
		Count:     len(comments),
		Roots:     forest,
		report:    report,
	}
}

// threadView prints one or more forests. A single forest is emitted as a
// bare array of root comments; several are wrapped per product.
type threadView struct {
	threads []productThread
	opts    render.Options
}

func (v threadView) MarshalJSON() ([]byte, error) {
	if len(v.threads) == 1 {
		return json.Marshal(v.threads[0].Roots)
	}
	return json.Marshal(v.threads)
}

func (v threadView) WriteText(w io.Writer) error {
	for i, t := range v.threads {
		if len(v.threads) > 1 {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "Product %s (%d %s)\n", t.ProductID, t.Count, t.Kind); err != nil {
				return err
			}
		}
		if len(t.Roots) == 0 {
			if _, err := fmt.Fprintln(w, "No comments."); err != nil {
				return err
			}
			continue
		}
		if err := render.Tree(w, t.Roots, v.opts); err != nil {
			return err
		}
	}
	return nil
}

func (v threadView) Table() output.Table {
	if len(v.threads) == 1 {
		return render.Rows(v.threads[0].Roots)
	}
	var table output.Table
	for _, t := range v.threads {
		rows := render.Rows(t.Roots)
		table.Headers = append([]string{"PRODUCT"}, rows.Headers...)
		for _, row := range rows.Rows {
			table.Rows = append(table.Rows, append([]string{t.ProductID}, row...))
		}
	}
	return table
}

// commentListView prints a flat page (or a fully paginated list) of comments.
type commentListView struct {
	page     *api.Page
	comments []api.Comment
	opts     render.Options
}

func (v commentListView) items() []api.Comment {
	if v.page != nil {
		return v.page.Results
	}
	return v.comments
}

func (v commentListView) MarshalJSON() ([]byte, error) {
	if v.page != nil {
		return json.Marshal(v.page)
	}
	if v.comments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.comments)
}

func (v commentListView) WriteText(w io.Writer) error {
	items := v.items()
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No comments.")
		return err
	}
	if err := render.List(w, items, v.opts); err != nil {
		return err
	}
	if v.page != nil && v.page.HasNext() {
		_, err := fmt.Fprintf(w, "(%d of %d shown, more with --page)\n", len(items), v.page.Count)
		return err
	}
	return nil
}

func (v commentListView) Table() output.Table {
	return render.ListRows(v.items())
}
