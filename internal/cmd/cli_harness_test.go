package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/config"
)

// cliRun captures one CLI invocation.
type cliRun struct {
	stdout string
	stderr string
	err    error

	// credentials passed to the client factory
	token string
	base  string
}

type cliEnv struct {
	t      *testing.T
	client *fakeClient
	store  *fakeStore
	env    map[string]string
	config string
	stdin  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(""), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliEnv{
		t:      t,
		client: &fakeClient{},
		store:  newFakeStore(),
		env:    map[string]string{},
		config: cfgPath,
	}
}

func (e *cliEnv) run(args ...string) cliRun {
	e.t.Helper()
	restore := snapshotCLIState()
	defer restore()

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	in := strings.NewReader(e.stdin)

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(in)
	rootCmd.SetContext(context.Background())

	var result cliRun
	prevEnvGet := envGet
	envGet = func(key string) string { return e.env[key] }
	prevStore := openSecretsStore
	openSecretsStore = func() (credentialStore, error) { return e.store, nil }
	prevNewClient := newClientFromCredsFunc
	newClientFromCredsFunc = func(base, token string, opts ...api.ClientOption) (api.StorefrontAPI, error) {
		result.token = token
		result.base = base
		return e.client, nil
	}
	defer func() {
		envGet = prevEnvGet
		openSecretsStore = prevStore
		newClientFromCredsFunc = prevNewClient
	}()

	rootCmd.SetArgs(append([]string{"--config", e.config}, args...))
	result.err = Execute()
	result.stdout = out.String()
	result.stderr = errBuf.String()
	return result
}

func (e *cliEnv) loadConfig() *config.Config {
	e.t.Helper()
	cfg, err := config.Load(e.config)
	if err != nil {
		e.t.Fatalf("load config: %v", err)
	}
	return cfg
}

func snapshotCLIState() func() {
	prevBaseURL := baseURL
	prevToken := apiToken
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevConfig := configFile
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevYes := yesFlag
	prevNoColor := noColor
	prevResultLimit := resultLimit
	prevResultSort := resultSort
	prevResultDesc := resultDesc
	prevClient := client
	prevConfigLoaded := activeConfig
	prevLogger := logger

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		baseURL = prevBaseURL
		apiToken = prevToken
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		configFile = prevConfig
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		yesFlag = prevYes
		noColor = prevNoColor
		resultLimit = prevResultLimit
		resultSort = prevResultSort
		resultDesc = prevResultDesc
		client = prevClient
		activeConfig = prevConfigLoaded
		logger = prevLogger

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag in the command tree to its default so
// that one test's flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		sub.SetContext(nil) //nolint:staticcheck // drop the previous run's context
		resetFlags(sub)
	}
}
