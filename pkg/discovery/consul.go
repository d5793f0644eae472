package discovery

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"smallbiznis-backoffice/pkg/config"

	"github.com/hashicorp/consul/api"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module registers the HTTP server in Consul when CONSUL.ADDR is set.
var Module = fx.Module("discovery", fx.Invoke(Register))

type ServiceRegistry interface {
	Register(ctx context.Context) error
	Deregister(ctx context.Context) error
}

type ConsulRegistry struct {
	client    *api.Client
	serviceID string
	service   *api.AgentServiceRegistration
}

// NewRegistration describes this process to Consul with a readiness check.
func NewRegistration(cfg *config.Config, hostname string) (*api.AgentServiceRegistration, error) {
	port, err := strconv.Atoi(cfg.Server.Addr)
	if err != nil {
		return nil, fmt.Errorf("HTTP_SERVER.ADDR must be a port for consul registration: %w", err)
	}

	host := cfg.Consul.ServiceHost
	if host == "" {
		host = hostname
	}

	return &api.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", cfg.AppName, hostname, port),
		Name:    cfg.AppName,
		Address: host,
		Port:    port,
		Tags:    []string{cfg.AppEnv},
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/readyz", host, port),
			Interval: "10s",
			Timeout:  "5s",
		},
	}, nil
}

func NewConsulRegistry(addr string, service *api.AgentServiceRegistration) (*ConsulRegistry, error) {
	cc := api.DefaultConfig()
	cc.Address = addr

	client, err := api.NewClient(cc)
	if err != nil {
		return nil, err
	}

	return &ConsulRegistry{
		client:    client,
		serviceID: service.ID,
		service:   service,
	}, nil
}

func (r *ConsulRegistry) Register(ctx context.Context) error {
	return r.client.Agent().ServiceRegisterOpts(r.service, api.ServiceRegisterOpts{}.WithContext(ctx))
}

func (r *ConsulRegistry) Deregister(ctx context.Context) error {
	return r.client.Agent().ServiceDeregisterOpts(r.serviceID, (&api.QueryOptions{}).WithContext(ctx))
}

func Register(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Consul.Addr == "" {
		return nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		return err
	}
	service, err := NewRegistration(cfg, hostname)
	if err != nil {
		return err
	}
	registry, err := NewConsulRegistry(cfg.Consul.Addr, service)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := registry.Register(ctx); err != nil {
				zap.L().Error("failed to register in consul", zap.Error(err))
				return err
			}
			zap.L().Info("registered in consul", zap.String("service_id", service.ID))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return registry.Deregister(ctx)
		},
	})
	return nil
}
