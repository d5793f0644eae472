package featureflags

import (
	"context"
	"testing"

	"smallbiznis-backoffice/pkg/config"

	"github.com/stretchr/testify/require"
)

func TestProvideFeatureFlagFallsBackToDefaults(t *testing.T) {
	flags := ProvideFeatureFlag(FeatureParams{Config: &config.Config{}})

	require.IsType(t, Static{}, flags)
	require.True(t, flags.Enabled(context.Background(), LicenseExportXLSX, "acme"))
	require.False(t, flags.Enabled(context.Background(), "unknown_feature", "acme"))
}

func TestStaticOverride(t *testing.T) {
	flags := Static{LicenseExportXLSX: false}
	require.False(t, flags.Enabled(context.Background(), LicenseExportXLSX, "acme"))
}
