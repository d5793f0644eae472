package secret

import (
	"os"
	"time"

	"github.com/hashicorp/vault-client-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a Vault client when VAULT_ADDR is set. Without it the
// client is nil and configuration comes from files and the environment only.
var Module = fx.Module("vault", fx.Provide(NewClient))

func NewClient() (*vault.Client, error) {
	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		return nil, nil
	}

	client, err := vault.New(
		vault.WithAddress(addr),
		vault.WithRequestTimeout(30*time.Second),
	)
	if err != nil {
		return nil, err
	}

	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		if err := client.SetToken(token); err != nil {
			return nil, err
		}
	}

	zap.L().Info("vault client configured", zap.String("addr", addr))
	return client, nil
}
