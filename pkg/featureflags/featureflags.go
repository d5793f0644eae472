package featureflags

import (
	"context"

	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/logger"

	"github.com/Flagsmith/flagsmith-go-client/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// LicenseExportXLSX enables the Excel rendition of the license export.
	LicenseExportXLSX = "license_export_xlsx"
)

var Module = fx.Module("featureflags", fx.Provide(ProvideFeatureFlag))

// Flags answers whether a feature is on for one identity, usually an account slug.
type Flags interface {
	Enabled(ctx context.Context, feature, identifier string) bool
}

// Defaults is used when Flagsmith is not configured or cannot be reached.
func Defaults() Static {
	return Static{
		LicenseExportXLSX: true,
	}
}

// Static is a fixed flag set.
type Static map[string]bool

func (s Static) Enabled(_ context.Context, feature, _ string) bool {
	return s[feature]
}

type flagsmithFlags struct {
	client   *flagsmith.Client
	defaults Static
}

type FeatureParams struct {
	fx.In
	Config *config.Config
}

func ProvideFeatureFlag(p FeatureParams) Flags {
	if p.Config.Flagsmith.ApiKey == "" {
		return Defaults()
	}

	opts := []flagsmith.Option{flagsmith.WithAnalytics()}
	if p.Config.Flagsmith.Addr != "" {
		opts = append(opts, flagsmith.WithBaseURL(p.Config.Flagsmith.Addr))
	}

	return &flagsmithFlags{
		client:   flagsmith.NewClient(p.Config.Flagsmith.ApiKey, opts...),
		defaults: Defaults(),
	}
}

func (f *flagsmithFlags) Enabled(ctx context.Context, feature, identifier string) bool {
	zapLog := logger.FromContext(ctx).With(zap.String("feature", feature), zap.String("identifier", identifier))

	flags, err := f.client.GetIdentityFlags(identifier, nil)
	if err != nil {
		zapLog.Warn("failed to fetch feature flags, using default", zap.Error(err))
		return f.defaults[feature]
	}

	on, err := flags.IsFeatureEnabled(feature)
	if err != nil {
		zapLog.Debug("unknown feature flag, using default", zap.Error(err))
		return f.defaults[feature]
	}
	return on
}
