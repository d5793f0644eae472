package discovery

import (
	"testing"

	"smallbiznis-backoffice/pkg/config"

	"github.com/stretchr/testify/require"
)

func TestNewRegistration(t *testing.T) {
	cfg := &config.Config{AppName: "backoffice", AppEnv: "staging"}
	cfg.Server.Addr = "8080"

	svc, err := NewRegistration(cfg, "node-1")
	require.NoError(t, err)
	require.Equal(t, "backoffice-node-1-8080", svc.ID)
	require.Equal(t, "node-1", svc.Address)
	require.Equal(t, "http://node-1:8080/readyz", svc.Check.HTTP)

	cfg.Consul.ServiceHost = "10.0.0.7"
	svc, err = NewRegistration(cfg, "node-1")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.7", svc.Address)

	cfg.Server.Addr = ":8080"
	_, err = NewRegistration(cfg, "node-1")
	require.Error(t, err)
}
