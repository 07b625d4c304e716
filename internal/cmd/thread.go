package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/commenttree"
)

var (
	threadMaxDepth int
	threadWidth    int
	threadStrict   bool
)

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Build reply threads from saved comment exports",
	Long: `Work offline on comments saved from the API.

Input is a JSON array of comments or a paginated response with a "results"
array, read from a file or from stdin.`,
}

var threadBuildCmd = &cobra.Command{
	Use:   "build [file|-]",
	Short: "Turn a flat comment export into reply threads",
	Long: `Turn a flat comment export into reply threads.

Examples:
  storefront thread build comments.json
  storefront comments list 42 --all -o json | storefront thread build -o json
  storefront thread build comments.json --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThreadBuild,
}

var threadStatsCmd = &cobra.Command{
	Use:   "stats [file|-]",
	Short: "Summarize the shape of a comment export",
	Long: `Count roots, depth and anomalies in a comment export without printing it.

Examples:
  storefront thread stats comments.json
  storefront thread stats comments.json -o json --query '.valid'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThreadStats,
}

func init() {
	rootCmd.AddCommand(threadCmd)
	threadCmd.AddCommand(threadBuildCmd)
	threadCmd.AddCommand(threadStatsCmd)

	threadBuildCmd.Flags().IntVar(&threadMaxDepth, "max-depth", 0, "Indent at most this many levels in text output (0 = unlimited)")
	threadBuildCmd.Flags().IntVar(&threadWidth, "width", 0, "Truncate comment text to this many characters (0 = no limit)")
	threadBuildCmd.Flags().BoolVar(&threadStrict, "strict", false, "Fail on duplicate ids, self-replies and reply cycles")
}

func runThreadBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if threadMaxDepth < 0 {
		return api.ValidationError{Message: "--max-depth must not be negative"}
	}

	comments, err := readThreadInput(ctx, args)
	if err != nil {
		return err
	}

	if threadStrict {
		if err := commenttree.Validate(comments, api.TreeKey); err != nil {
			return err
		}
	}
	thread := newProductThread("", "", comments)
	if err := checkThreads(ctx, []productThread{thread}, false); err != nil {
		return err
	}

	maxDepth := threadMaxDepth
	if !flagChanged(cmd, "max-depth") && activeConfig != nil {
		maxDepth = activeConfig.MaxDepth
	}
	view := threadView{
		threads: []productThread{thread},
		opts:    renderOptionsFor(cmd, maxDepth, threadWidth),
	}
	return printResult(ctx, view)
}

// threadStats describes a built forest.
type threadStats struct {
	Comments     int        `json:"comments"`
	Roots        int        `json:"roots"`
	Depth        int        `json:"depth"`
	Orphans      []string   `json:"orphans"`
	SelfParented []string   `json:"self_parented"`
	DuplicateIDs []string   `json:"duplicate_ids"`
	Cycles       [][]string `json:"cycles"`
	Valid        bool       `json:"valid"`
}

func runThreadStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	comments, err := readThreadInput(ctx, args)
	if err != nil {
		return err
	}

	thread := newProductThread("", "", comments)
	report := thread.report
	stats := threadStats{
		Comments:     len(comments),
		Roots:        report.Roots,
		Depth:        thread.Roots.Depth(),
		Orphans:      nonNilStrings(report.Orphans),
		SelfParented: nonNilStrings(report.SelfParented),
		DuplicateIDs: nonNilStrings(report.DuplicateIDs),
		Cycles:       report.Cycles,
		Valid:        report.Err() == nil,
	}
	if stats.Cycles == nil {
		stats.Cycles = [][]string{}
	}
	return printResult(ctx, stats)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
