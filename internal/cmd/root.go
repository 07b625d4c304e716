package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/config"
	"github.com/salmonumbrella/storefront-cli/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(fmt.Sprintf("storefront version %s (commit: %s, built: %s)\n", version, commit, date))
}

// Global flags
var (
	baseURL     string
	apiToken    string
	outputFmt   string
	outputType  output.Format
	debug       bool
	configFile  string
	queryExpr   string
	queryFile   string
	errorFmt    string
	quietFlag   bool
	yesFlag     bool
	noColor     bool
	resultLimit int
	resultSort  string
	resultDesc  bool
)

// client is the shared API client
var client api.StorefrontAPI

// activeConfig is the config loaded for the running command, never nil
// once PersistentPreRunE has run.
var activeConfig = &config.Config{}

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "CLI for storefront product discussions",
	Long: `storefront reads product comments and reviews from the storefront API
and shows them as reply threads.

Environment Variables:
  STOREFRONT_API_TOKEN   API token for authentication
  STOREFRONT_BASE_URL    API base URL (default ` + api.DefaultBaseURL + `)`,
	Version:       version,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		cmd.SetContext(ctx)
		logger = newLoggerFunc(cmd.ErrOrStderr(), debug)

		cfg := &config.Config{}
		if !inSubtree(cmd, "config") {
			loadedCfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			cfg = loadedCfg
		}
		activeConfig = cfg

		// Output format selection: --output > config > non-TTY json > default
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		}
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && !isTerminal(cmd.OutOrStdout()) {
			formatStr = "json"
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		// jq query
		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		ctx = output.WithSettings(ctx, output.Settings{
			Format:   outputType,
			Query:    queryExpr,
			Limit:    resultLimit,
			SortBy:   resultSort,
			SortDesc: resultDesc,
			Quiet:    quietFlag,
			Yes:      yesFlag,
		})
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}

		// Only the comments commands talk to the API on every run.
		if !inSubtree(cmd, "comments") {
			return nil
		}

		client, err = newClient(cmd, cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() error {
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		ctx := rootCmd.Context()
		if cmd != nil && cmd.Context() != nil {
			ctx = cmd.Context()
		}
		printCommandError(ctx, err)
		return err
	}
	return nil
}

// GetClient returns the initialized API client
func GetClient() api.StorefrontAPI {
	return client
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("storefront version %s (commit: %s, built: %s)\n", version, commit, date))

	// Global flags
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (env: STOREFRONT_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "API token (env: STOREFRONT_API_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "text", "Alias for --output")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation prompts (for automation)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().IntVar(&resultLimit, "result-limit", 0, "Limit number of results in output (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&resultSort, "result-sort-by", "", "Sort output results by field")
	rootCmd.PersistentFlags().BoolVar(&resultDesc, "result-desc", false, "Sort output results in descending order")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/storefront/config.yaml)")
}

// inSubtree reports whether cmd is the named top-level command or one of its children.
func inSubtree(cmd *cobra.Command, name string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if p := c.Parent(); c.Name() == name && p != nil && !p.HasParent() {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// colorEnabled reports whether text output may use terminal styling.
func colorEnabled(w io.Writer) bool {
	if noColor || envGet("NO_COLOR") != "" {
		return false
	}
	return isTerminal(w)
}
