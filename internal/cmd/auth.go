package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/config"
	"github.com/salmonumbrella/storefront-cli/internal/output"
	"github.com/salmonumbrella/storefront-cli/internal/secrets"
)

// defaultProfile is the keyring entry holding the API token
const defaultProfile = "default"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication credentials",
	Long: `Manage the storefront API token.

Credentials are stored in your system keychain (macOS Keychain, Windows
Credential Manager, Secret Service) or an encrypted file when no keychain
is available.

Examples:
  storefront auth login
  storefront auth login --token YOUR_TOKEN --base-url https://shop.example.com
  storefront auth status --verify
  storefront auth logout`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API token",
	Long: `Store an API token in the system keychain.

The token is read from --token, then STOREFRONT_API_TOKEN, then an
interactive prompt. It is checked against the API before it is saved
unless --no-verify is given.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	Long: `Remove the stored API token from the keychain.

You are asked to type 'yes' first. Use --yes to skip the prompt.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication status",
	Long: `Show whether an API token is stored and where it points.

Examples:
  storefront auth status
  storefront auth status --verify  # Also check the token with the API`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var (
	loginNoVerify bool
	verifyAuth    bool
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false, "Store the token without checking it")
	statusCmd.Flags().BoolVar(&verifyAuth, "verify", false, "Verify credentials with the API")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	token := ""
	if flagChanged(cmd, "token") {
		token = strings.TrimSpace(apiToken)
	}
	if token == "" {
		token = strings.TrimSpace(envGet("STOREFRONT_API_TOKEN"))
	}
	if token == "" {
		if structuredOutputRequested() {
			return api.ValidationError{Message: "API token is required (use --token or STOREFRONT_API_TOKEN)"}
		}
		var err error
		token, err = promptSecret(ctx, "Enter API token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return api.ValidationError{Message: "API token is required"}
	}

	base := loginBaseURL(cmd, activeConfig)
	client, err := newClientFromCredsFunc(base, token, clientOptionsFromConfig(activeConfig)...)
	if err != nil {
		return err
	}

	username := ""
	if !loginNoVerify {
		printStatus(ctx, "Verifying token with %s...", client.BaseURL())
		user, err := client.CurrentUser(ctx)
		var authErr api.AuthenticationError
		switch {
		case errors.As(err, &authErr):
			return api.AuthenticationError{Message: "authentication failed: invalid API token"}
		case err != nil:
			logger.Warn("token not verified", zap.Error(err))
			printStatus(ctx, "Warning: could not verify token: %v", err)
		default:
			username = user.DisplayName()
		}
	}

	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	tok := secrets.Token{
		APIToken:  token,
		BaseURL:   strings.TrimSpace(base),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.SetToken(defaultProfile, tok); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	return printResult(ctx, authStatus{
		Authenticated: true,
		Profile:       defaultProfile,
		BaseURL:       client.BaseURL(),
		User:          username,
		TokenPreview:  maskToken(token),
	})
}

// loginBaseURL picks the base URL to bind the token to: flag, env, then config.
func loginBaseURL(cmd *cobra.Command, cfg *config.Config) string {
	if flagChanged(cmd, "base-url") {
		return strings.TrimSpace(baseURL)
	}
	if v := strings.TrimSpace(envGet("STOREFRONT_BASE_URL")); v != "" {
		return v
	}
	if cfg != nil {
		return strings.TrimSpace(cfg.BaseURL)
	}
	return ""
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !output.SettingsFromContext(ctx).Yes {
		errOut := stderrFromContext(ctx)
		fmt.Fprint(errOut, "Remove the stored API token? Type 'yes' to confirm: ")
		reader := bufio.NewReader(stdinFromContext(ctx))
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			fmt.Fprintln(errOut, "Aborted.")
			return nil
		}
	}

	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := store.DeleteToken(defaultProfile); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	if structuredOutputRequested() {
		return printResult(ctx, map[string]string{"status": "logged_out"})
	}
	_, err = fmt.Fprintln(stdoutFromContext(ctx), "Logged out. The API token was removed from the keychain.")
	return err
}

// authStatus is the result of login and status.
type authStatus struct {
	Authenticated   bool   `json:"authenticated"`
	Profile         string `json:"profile,omitempty"`
	BaseURL         string `json:"base_url,omitempty"`
	User            string `json:"user,omitempty"`
	AuthenticatedAt string `json:"authenticated_at,omitempty"`
	TokenPreview    string `json:"token_preview,omitempty"`
	Verified        *bool  `json:"verified,omitempty"`
	VerifyError     string `json:"verify_error,omitempty"`
}

func (s authStatus) WriteText(w io.Writer) error {
	if !s.Authenticated {
		_, err := fmt.Fprintln(w, "Status: Not authenticated\n\nRun 'storefront auth login' to authenticate.")
		return err
	}

	lines := []string{"Status: Authenticated", "Profile: " + s.Profile, "API: " + s.BaseURL}
	if s.User != "" {
		lines = append(lines, "User: "+s.User)
	}
	if s.AuthenticatedAt != "" {
		lines = append(lines, "Authenticated at: "+s.AuthenticatedAt)
	}
	if s.TokenPreview != "" {
		lines = append(lines, "Token: "+s.TokenPreview)
	}
	if s.Verified != nil {
		if *s.Verified {
			lines = append(lines, "Verification: OK")
		} else {
			lines = append(lines, "Verification: FAILED - "+s.VerifyError)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	tok, err := store.GetToken(defaultProfile)
	if errors.Is(err, secrets.ErrNotFound) {
		return printResult(ctx, authStatus{Authenticated: false})
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	base := tok.BaseURL
	if base == "" {
		base = loginBaseURL(cmd, activeConfig)
	}
	if base == "" {
		base = api.DefaultBaseURL
	}

	status := authStatus{
		Authenticated: true,
		Profile:       defaultProfile,
		BaseURL:       base,
		TokenPreview:  maskToken(tok.APIToken),
	}
	if !tok.CreatedAt.IsZero() {
		status.AuthenticatedAt = tok.CreatedAt.Format(time.RFC3339)
	}

	if verifyAuth {
		ok, user, verifyErr := verifyToken(ctx, base, tok.APIToken)
		status.Verified = &ok
		status.User = user
		status.VerifyError = verifyErr
	}

	return printResult(ctx, status)
}

func verifyToken(ctx context.Context, base, token string) (ok bool, user, problem string) {
	client, err := newClientFromCredsFunc(base, token, clientOptionsFromConfig(activeConfig)...)
	if err != nil {
		return false, "", err.Error()
	}
	u, err := client.CurrentUser(ctx)
	var authErr api.AuthenticationError
	switch {
	case errors.As(err, &authErr):
		return false, "", "invalid or expired token"
	case err != nil:
		return false, "", err.Error()
	}
	return true, u.DisplayName(), ""
}

// promptSecret prompts for a secret input (no echo)
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok {
		if term.IsTerminal(int(file.Fd())) {
			password, err := term.ReadPassword(int(file.Fd()))
			fmt.Fprintln(stderrFromContext(ctx))
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(password)), nil
		}
	}

	// Piped input
	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskToken masks a token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
