package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/config"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	path, err := config.Path(configFile)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// resolveCredentials resolves token and base URL with precedence:
// flags > env > keyring > config.
func resolveCredentials(cmd *cobra.Command, cfg *config.Config) (token, base string) {
	if flagChanged(cmd, "token") {
		token = strings.TrimSpace(apiToken)
	}
	if flagChanged(cmd, "base-url") {
		base = strings.TrimSpace(baseURL)
	}

	if token == "" {
		token = strings.TrimSpace(envGet("STOREFRONT_API_TOKEN"))
	}
	if base == "" {
		base = strings.TrimSpace(envGet("STOREFRONT_BASE_URL"))
	}

	// Keyring (only if the token is still missing)
	if token == "" {
		if store, err := openSecretsStore(); err == nil {
			if tok, err := store.GetToken(defaultProfile); err == nil {
				token = tok.APIToken
				if base == "" {
					base = strings.TrimSpace(tok.BaseURL)
				}
			} else {
				logger.Debug("no stored credential")
			}
		}
	}

	if cfg != nil {
		if token == "" {
			token = strings.TrimSpace(cfg.Token)
		}
		if base == "" {
			base = strings.TrimSpace(cfg.BaseURL)
		}
	}

	return token, base
}

// clientOptionsFromConfig builds API client options from config.
func clientOptionsFromConfig(cfg *config.Config) []api.ClientOption {
	opts := []api.ClientOption{api.WithLogger(logger)}
	if cfg != nil && cfg.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(cfg.RateLimit))
	}
	return opts
}

// newClient resolves credentials and builds an API client.
func newClient(cmd *cobra.Command, cfg *config.Config) (api.StorefrontAPI, error) {
	token, base := resolveCredentials(cmd, cfg)
	c, err := newClientFromCredsFunc(base, token, clientOptionsFromConfig(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	logger.Debug("api client ready", zap.String("base_url", c.BaseURL()), zap.Bool("authenticated", token != ""))
	return c, nil
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
