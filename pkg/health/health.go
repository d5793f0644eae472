package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var Module = fx.Module("health", fx.Provide(ProvideHealth))

type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Health struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Deps    []Dependency `json:"deps"`
}

type HealthService interface {
	Liveness(c *gin.Context)
	Readiness(c *gin.Context)
}

type health struct {
	db    *gorm.DB
	redis *redis.Client
}

type HealthParams struct {
	fx.In
	DB    *gorm.DB      `optional:"true"`
	Redis *redis.Client `optional:"true"`
}

func ProvideHealth(p HealthParams) HealthService {
	return &health{
		db:    p.DB,
		redis: p.Redis,
	}
}

func (h *health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, &Health{
		Status:  "healthy",
		Message: "OK",
	})
}

func (h *health) Readiness(c *gin.Context) {
	this := &Health{
		Status:  "healthy",
		Message: "OK",
	}

	type check struct {
		name string
		ping func(ctx context.Context) error
	}
	checks := make([]check, 0, 2)
	if h.db != nil {
		checks = append(checks, check{name: h.db.Name(), ping: func(ctx context.Context) error {
			sqlDB, err := h.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	if h.redis != nil {
		checks = append(checks, check{name: "redis", ping: func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		}})
	}

	// each check owns one slot of deps
	deps := make([]Dependency, len(checks))
	var g errgroup.Group
	for i, chk := range checks {
		g.Go(func() error {
			dep := Dependency{Name: chk.name, Status: "healthy", Message: "OK"}
			if err := chk.ping(c.Request.Context()); err != nil {
				dep.Status = "unhealthy"
				dep.Message = err.Error()
			}
			deps[i] = dep
			return nil
		})
	}
	_ = g.Wait()

	code := http.StatusOK
	for _, d := range deps {
		if d.Status != "healthy" {
			this.Status = "unhealthy"
			this.Message = "one or more dependencies are unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	this.Deps = deps

	c.JSON(code, this)
}
