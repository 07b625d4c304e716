package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/render"
)

const defaultConcurrency = 4

var (
	commentsKind        string
	commentsPage        int
	commentsPageSize    int
	commentsMaxPages    int
	commentsMaxDepth    int
	commentsWidth       int
	commentsStrict      bool
	commentsConcurrency int
	commentsAll         bool
)

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Read product comments and reviews",
	Long: `Read the comment and review threads of storefront products.

Comments come back from the API as a flat list where each record names the
comment it replies to. The tree command rebuilds the reply threads.`,
}

var commentsTreeCmd = &cobra.Command{
	Use:   "tree <product-id>...",
	Short: "Show comments as reply threads",
	Long: `Fetch every page of a product's comments and show them as reply threads.

Top-level comments keep the order the API returned them in, and so do the
replies under each comment. A reply whose parent is missing from the result
is shown as a top-level comment.

Examples:
  # Threads for one product
  storefront comments tree 42

  # Reviews, flattened below the third level
  storefront comments tree 42 --kind reviews --max-depth 3

  # Several products as JSON, failing on malformed threads
  storefront comments tree 42 43 44 -o json --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommentsTree,
}

var commentsListCmd = &cobra.Command{
	Use:   "list <product-id>",
	Short: "List comments as the API returns them",
	Long: `List one page of a product's comments without building threads.

Examples:
  storefront comments list 42
  storefront comments list 42 --page 2 --page-size 50
  storefront comments list 42 --all -o ndjson`,
	Args: cobra.ExactArgs(1),
	RunE: runCommentsList,
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.AddCommand(commentsTreeCmd)
	commentsCmd.AddCommand(commentsListCmd)

	for _, c := range []*cobra.Command{commentsTreeCmd, commentsListCmd} {
		c.Flags().StringVar(&commentsKind, "kind", "comments", "Discussion to read (comments|reviews)")
		c.Flags().IntVar(&commentsPage, "page", 1, "Page to start from")
		c.Flags().IntVar(&commentsPageSize, "page-size", 0, "Records per page (default: server or config page_size)")
		c.Flags().IntVar(&commentsMaxPages, "max-pages", 0, "Stop after this many pages (0 = all)")
		c.Flags().IntVar(&commentsWidth, "width", 0, "Truncate comment text to this many characters (0 = no limit)")
	}
	commentsListCmd.Flags().BoolVar(&commentsAll, "all", false, "Follow pagination and list every comment")

	commentsTreeCmd.Flags().IntVar(&commentsMaxDepth, "max-depth", 0, "Indent at most this many levels in text output (0 = unlimited)")
	commentsTreeCmd.Flags().BoolVar(&commentsStrict, "strict", false, "Fail on duplicate ids, self-replies and reply cycles")
	commentsTreeCmd.Flags().IntVar(&commentsConcurrency, "concurrency", defaultConcurrency, "Products fetched in parallel")
}

// listOptions builds API list options from flags and config.
func listOptions(cmd *cobra.Command, productID string) (api.ListOptions, error) {
	kind, err := api.ParseKind(commentsKind)
	if err != nil {
		return api.ListOptions{}, err
	}
	if commentsPage < 1 {
		return api.ListOptions{}, api.ValidationError{Message: "--page must be at least 1"}
	}

	pageSize := commentsPageSize
	if !flagChanged(cmd, "page-size") && activeConfig != nil {
		pageSize = activeConfig.PageSize
	}
	if pageSize < 0 {
		return api.ListOptions{}, api.ValidationError{Message: "--page-size must not be negative"}
	}

	return api.ListOptions{
		ProductID: productID,
		Kind:      kind,
		Page:      commentsPage,
		PageSize:  pageSize,
	}, nil
}

func renderOptions(cmd *cobra.Command) render.Options {
	maxDepth := commentsMaxDepth
	if !flagChanged(cmd, "max-depth") && activeConfig != nil {
		maxDepth = activeConfig.MaxDepth
	}
	return renderOptionsFor(cmd, maxDepth, commentsWidth)
}

func renderOptionsFor(cmd *cobra.Command, maxDepth, width int) render.Options {
	return render.Options{
		MaxDepth: maxDepth,
		Width:    width,
		Color:    colorEnabled(stdoutFromContext(cmd.Context())),
	}
}

func runCommentsTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := GetClient()
	if client == nil {
		return errors.New("API client not initialized")
	}
	if commentsConcurrency < 1 {
		return api.ValidationError{Message: "--concurrency must be at least 1"}
	}
	if commentsMaxDepth < 0 {
		return api.ValidationError{Message: "--max-depth must not be negative"}
	}

	threads, err := fetchThreads(ctx, cmd, client, args)
	if err != nil {
		return err
	}

	if err := checkThreads(ctx, threads, commentsStrict); err != nil {
		return err
	}

	return printResult(ctx, threadView{threads: threads, opts: renderOptions(cmd)})
}

// fetchThreads loads and builds every product concurrently. Results keep
// the order of productIDs.
func fetchThreads(ctx context.Context, cmd *cobra.Command, client api.StorefrontAPI, productIDs []string) ([]productThread, error) {
	threads := make([]productThread, len(productIDs))
	requests := make([]api.ListOptions, len(productIDs))
	for i, productID := range productIDs {
		opts, err := listOptions(cmd, productID)
		if err != nil {
			return nil, err
		}
		requests[i] = opts
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentsConcurrency)
	for i, opts := range requests {
		productID := opts.ProductID
		g.Go(func() error {
			comments, err := client.ListAllComments(gctx, opts, commentsMaxPages)
			if err != nil {
				return &productError{ProductID: productID, Err: err}
			}
			threads[i] = newProductThread(productID, opts.Kind, comments)
			logger.Debug("built thread",
				zap.String("product", productID),
				zap.String("kind", string(opts.Kind)),
				zap.Int("comments", len(comments)),
				zap.Int("roots", len(threads[i].Roots)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return threads, nil
}

// productError ties a failure to the product it was loading.
type productError struct {
	ProductID string
	Err       error
}

func (e *productError) Error() string { return fmt.Sprintf("product %s: %v", e.ProductID, e.Err) }
func (e *productError) Unwrap() error { return e.Err }

// checkThreads reports malformed input. In strict mode it fails with the
// joined violations; otherwise it only warns.
func checkThreads(ctx context.Context, threads []productThread, strict bool) error {
	var errs []error
	for _, t := range threads {
		if len(t.report.Orphans) > 0 {
			logger.Debug("orphaned replies shown as top-level",
				zap.String("product", t.ProductID),
				zap.Strings("ids", t.report.Orphans))
		}

		err := t.report.Err()
		if err == nil {
			continue
		}
		if strict {
			if t.ProductID != "" {
				err = &productError{ProductID: t.ProductID, Err: err}
			}
			errs = append(errs, err)
			continue
		}
		logger.Warn("malformed thread repaired",
			zap.String("product", t.ProductID),
			zap.Strings("duplicate_ids", t.report.DuplicateIDs),
			zap.Strings("self_parented", t.report.SelfParented),
			zap.Int("cycles", len(t.report.Cycles)))
		printStatus(ctx, "Warning: %s", describeRepairs(t))
	}
	return errors.Join(errs...)
}

func describeRepairs(t productThread) string {
	msg := fmt.Sprintf("repaired malformed thread (duplicate ids: %d, self-replies: %d, reply cycles: %d)",
		len(t.report.DuplicateIDs), len(t.report.SelfParented), len(t.report.Cycles))
	if t.ProductID != "" {
		msg = "product " + t.ProductID + ": " + msg
	}
	return msg + " (use --strict to fail instead)"
}

func runCommentsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := GetClient()
	if client == nil {
		return errors.New("API client not initialized")
	}

	opts, err := listOptions(cmd, args[0])
	if err != nil {
		return err
	}

	view := commentListView{opts: renderOptions(cmd)}
	if commentsAll {
		view.comments, err = client.ListAllComments(ctx, opts, commentsMaxPages)
	} else {
		view.page, err = client.ListComments(ctx, opts)
	}
	if err != nil {
		return err
	}
	return printResult(ctx, view)
}
