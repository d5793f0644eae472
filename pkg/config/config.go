package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	_ "github.com/spf13/viper/remote"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr     string `mapstructure:"ADDR"`
		Protocol string `mapstructure:"PROTOCOL"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Flagsmith struct {
		Addr   string `mapstructure:"ADDR"`
		ApiKey string `mapstructure:"API_KEY"`
	} `mapstructure:"FLAGSMITH"`
	Metrics struct {
		Enable bool `mapstructure:"ENABLE"`
		Port   int  `mapstructure:"PORT"`
	} `mapstructure:"METRICS"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		AutoMigrate    bool   `mapstructure:"AUTO_MIGRATE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Auth struct {
		JWTSecret  string `mapstructure:"JWT_SECRET"`
		Issuer     string `mapstructure:"ISSUER"`
		SignInPath string `mapstructure:"SIGN_IN_PATH"`
	} `mapstructure:"AUTH"`
	Mail struct {
		BaseURL string        `mapstructure:"BASE_URL"`
		APIKey  string        `mapstructure:"API_KEY"`
		From    string        `mapstructure:"FROM"`
		AppURL  string        `mapstructure:"APP_URL"`
		Timeout time.Duration `mapstructure:"TIMEOUT"`
	} `mapstructure:"MAIL"`
	Minio struct {
		Endpoint   string `mapstructure:"ENDPOINT"`
		AccessKey  string `mapstructure:"ACCESS_KEY"`
		SecretKey  string `mapstructure:"SECRET_KEY"`
		Secure     bool   `mapstructure:"SECURE"`
		BucketName string `mapstructure:"BUCKET_NAME"`
		PublicURL  string `mapstructure:"PUBLIC_URL"`
	} `mapstructure:"MINIO"`
	AccessControl struct {
		Model  string `mapstructure:"MODEL"`
		Policy string `mapstructure:"POLICY"`
	} `mapstructure:"ACCESS_CONTROL"`
	Consul struct {
		Addr        string `mapstructure:"ADDR"`
		ServiceHost string `mapstructure:"SERVICE_HOST"`
	} `mapstructure:"CONSUL"`
	Invitation struct {
		TTL time.Duration `mapstructure:"TTL"`
	} `mapstructure:"INVITATION"`
}

// Path points LoadConfig at an explicit config file. Empty means ./config.yaml.
type Path string

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Params struct {
	fx.In
	Path  Path          `optional:"true"`
	Vault *vault.Client `optional:"true"`
}

func LoadConfig(p Params) (*Config, error) {
	// .env is optional; real deployments inject the environment directly.
	if err := godotenv.Load(); err == nil {
		zap.L().Info("loaded environment from .env")
	}

	v := viper.New()
	if p.Path != "" {
		v.SetConfigFile(string(p.Path))
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if provider := os.Getenv("REMOTE_CONFIG_PROVIDER"); provider != "" {
		if err := readRemote(v, provider); err != nil {
			return nil, err
		}
	} else if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || p.Path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		zap.L().Warn("config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if p.Vault != nil {
		zap.L().Info("reading secrets from vault", zap.String("path", cfg.AppEnv))
		secret, err := p.Vault.Secrets.KvV2Read(context.Background(), cfg.AppEnv, vault.WithMountPath("secret"))
		if err != nil {
			return nil, fmt.Errorf("read vault secrets: %w", err)
		}
		ApplySecrets(&cfg, secret.Data.Data)
	}

	if cfg.TLS.Enable && (cfg.TLS.CertPath == "" || cfg.TLS.KeyPath == "") {
		return nil, errors.New("tls enabled but TLS.CERT_PATH or TLS.KEY_PATH not provided")
	}

	if cfg.Auth.JWTSecret == "" && cfg.AppEnv == "production" {
		return nil, errors.New("AUTH.JWT_SECRET is required in production")
	}

	return &cfg, nil
}

// readRemote loads YAML config from a consul/etcd3/firestore key set by
// REMOTE_CONFIG_ADDR and REMOTE_CONFIG_PATH.
func readRemote(v *viper.Viper, provider string) error {
	addr := os.Getenv("REMOTE_CONFIG_ADDR")
	path := os.Getenv("REMOTE_CONFIG_PATH")

	v.SetConfigType("yaml")
	if err := v.AddRemoteProvider(provider, addr, path); err != nil {
		return fmt.Errorf("remote config provider: %w", err)
	}
	if err := v.ReadRemoteConfig(); err != nil {
		return fmt.Errorf("read remote config: %w", err)
	}
	zap.L().Info("loaded remote config", zap.String("provider", provider), zap.String("path", path))
	return nil
}

// ApplySecrets overlays non-empty string secrets onto cfg.
func ApplySecrets(cfg *Config, data map[string]any) {
	set := func(dst *string, key string) {
		if v, ok := data[key].(string); ok && v != "" {
			*dst = v
		}
	}

	set(&cfg.Auth.JWTSecret, "jwt_secret")
	set(&cfg.Database.User, "database_user")
	set(&cfg.Database.Password, "database_password")
	set(&cfg.Redis.Password, "redis_password")
	set(&cfg.Mail.APIKey, "mail_api_key")
	set(&cfg.Minio.AccessKey, "minio_access_key")
	set(&cfg.Minio.SecretKey, "minio_secret_key")
	set(&cfg.Flagsmith.ApiKey, "flagsmith_api_key")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "backoffice")
	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("DATABASE.TYPE", "sqlite")
	v.SetDefault("DATABASE.DBNAME", "backoffice.db")
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "UTC")
	v.SetDefault("DATABASE.AUTO_MIGRATE", true)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_OPEN_CONNS", 20)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_IDLE_TIME", 10*time.Minute)
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS.POOL_SIZE", 10)
	v.SetDefault("REDIS.POOL_TIMEOUT", 5*time.Second)
	v.SetDefault("AUTH.ISSUER", "backoffice")
	v.SetDefault("AUTH.SIGN_IN_PATH", "/auth/sign-in")
	v.SetDefault("MAIL.TIMEOUT", 10*time.Second)
	v.SetDefault("MINIO.BUCKET_NAME", "avatars")
	v.SetDefault("METRICS.PORT", 9100)
	v.SetDefault("OTEL.PROTOCOL", "http")
	v.SetDefault("INVITATION.TTL", 7*24*time.Hour)
}
