package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/storefront-cli/internal/config"
	"github.com/salmonumbrella/storefront-cli/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/storefront/config.yaml.

Run 'storefront config keys' to list the supported keys.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		return printResult(cmd.Context(), configView{cfg: cfg})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := output.Table{Headers: []string{"KEY", "DESCRIPTION"}}
		for _, k := range configKeys {
			table.Rows = append(table.Rows, []string{k.name, k.help})
		}
		if structuredOutputRequested() {
			return printResult(cmd.Context(), supportedConfigKeys())
		}
		return output.NewPrinter(stdoutFromContext(cmd.Context()), output.FormatTable).Print(cmd.Context(), table)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if structuredOutputRequested() {
			return printResult(cmd.Context(), map[string]string{"path": path})
		}
		_, err = fmt.Fprintln(stdoutFromContext(cmd.Context()), path)
		return err
	},
}

// configKey describes one settable key. set receives "" to clear.
type configKey struct {
	name string
	help string
	get  func(*config.Config) string
	set  func(*config.Config, string) error
}

var configKeys = []configKey{
	{
		name: "base_url",
		help: "API base URL",
		get:  func(c *config.Config) string { return c.BaseURL },
		set: func(c *config.Config, v string) error {
			if v != "" {
				u, err := url.Parse(v)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
					return fmt.Errorf("invalid base_url %q (expected http(s)://host)", v)
				}
			}
			c.BaseURL = v
			return nil
		},
	},
	{
		name: "token",
		help: "API token (prefer 'storefront auth login')",
		get:  func(c *config.Config) string { return c.Token },
		set:  func(c *config.Config, v string) error { c.Token = v; return nil },
	},
	{
		name: "keyring_backend",
		help: "Credential store: auto, keychain or file",
		get:  func(c *config.Config) string { return c.KeyringBackend },
		set: func(c *config.Config, v string) error {
			switch strings.ToLower(v) {
			case "", "auto", "keychain", "file":
				c.KeyringBackend = strings.ToLower(v)
				return nil
			}
			return fmt.Errorf("invalid keyring_backend %q (expected auto|keychain|file)", v)
		},
	},
	{
		name: "output_format",
		help: "Default output format",
		get:  func(c *config.Config) string { return c.OutputFormat },
		set: func(c *config.Config, v string) error {
			if v == "" {
				c.OutputFormat = ""
				return nil
			}
			format, err := output.ParseFormat(v)
			if err != nil {
				return fmt.Errorf("invalid output_format %q (expected text|json|ndjson|table|yaml)", v)
			}
			c.OutputFormat = string(format)
			return nil
		},
	},
	{
		name: "page_size",
		help: "Records requested per page (0 = server default)",
		get:  func(c *config.Config) string { return intValue(c.PageSize) },
		set: func(c *config.Config, v string) error {
			n, err := parseNonNegativeInt("page_size", v)
			c.PageSize = n
			return err
		},
	},
	{
		name: "max_depth",
		help: "Indentation cap for threads in text output (0 = unlimited)",
		get:  func(c *config.Config) string { return intValue(c.MaxDepth) },
		set: func(c *config.Config, v string) error {
			n, err := parseNonNegativeInt("max_depth", v)
			c.MaxDepth = n
			return err
		},
	},
	{
		name: "rate_limit",
		help: "Maximum API requests per second (0 = unlimited)",
		get: func(c *config.Config) string {
			if c.RateLimit == 0 {
				return ""
			}
			return strconv.FormatFloat(c.RateLimit, 'f', -1, 64)
		},
		set: func(c *config.Config, v string) error {
			if v == "" {
				c.RateLimit = 0
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid rate_limit %q (expected a non-negative number)", v)
			}
			c.RateLimit = f
			return nil
		},
	},
}

func intValue(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func parseNonNegativeInt(key, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q (expected a non-negative integer)", key, v)
	}
	return n, nil
}

func lookupConfigKey(name string) (configKey, error) {
	for _, k := range configKeys {
		if k.name == name {
			return k, nil
		}
	}
	return configKey{}, fmt.Errorf("unknown config key: %s (see 'storefront config keys')", name)
}

func supportedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for _, k := range configKeys {
		keys = append(keys, k.name)
	}
	return keys
}

func configPath() (string, error) {
	return config.Path(configFile)
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])
	if value == "" {
		return fmt.Errorf("empty value for %s (use 'storefront config unset %s')", name, name)
	}
	return updateConfig(cmd, name, value, "updated")
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(strings.TrimSpace(args[0]))
	return updateConfig(cmd, name, "", "unset")
}

func updateConfig(cmd *cobra.Command, name, value, status string) error {
	key, err := lookupConfigKey(name)
	if err != nil {
		return err
	}

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}
	if err := key.set(cfg, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	ctx := cmd.Context()
	if structuredOutputRequested() {
		result := map[string]string{"status": status, "key": name}
		if status == "updated" {
			result["value"] = key.get(cfg)
			if name == "token" {
				result["value"] = maskToken(value)
			}
		}
		return printResult(ctx, result)
	}

	verb := "Updated"
	if status == "unset" {
		verb = "Unset"
	}
	_, err = fmt.Fprintf(stdoutFromContext(ctx), "%s %s\n", verb, name)
	return err
}

// configView shows every key with the token masked.
type configView struct {
	cfg *config.Config
}

func (v configView) values() map[string]string {
	values := make(map[string]string, len(configKeys))
	for _, k := range configKeys {
		val := k.get(v.cfg)
		if k.name == "token" && val != "" {
			val = maskToken(val)
		}
		values[k.name] = val
	}
	return values
}

func (v configView) MarshalJSON() ([]byte, error) {
	values := make(map[string]interface{}, len(configKeys)+1)
	for k, val := range v.values() {
		values[k] = val
	}
	values["token_set"] = v.cfg.Token != ""
	return json.Marshal(values)
}

func (v configView) WriteText(w io.Writer) error {
	values := v.values()
	if _, err := fmt.Fprintln(w, "Config:"); err != nil {
		return err
	}
	for _, k := range configKeys {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", k.name, values[k.name]); err != nil {
			return err
		}
	}
	return nil
}
