package cmd

import (
	"os"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/secrets"
)

// credentialStore is the subset of the keyring store the commands use.
type credentialStore interface {
	GetToken(profile string) (secrets.Token, error)
	SetToken(profile string, tok secrets.Token) error
	DeleteToken(profile string) error
}

var (
	openSecretsStore = func() (credentialStore, error) {
		return secrets.Open(activeConfig)
	}
	newClientFromCredsFunc = api.NewClientFromCredentials
	envGet                 = os.Getenv
	newLoggerFunc          = newLogger
)
