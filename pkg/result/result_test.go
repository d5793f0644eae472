package result

import (
	"fmt"
	"testing"

	"smallbiznis-backoffice/pkg/errutil"

	"github.com/stretchr/testify/require"
)

func TestAsRedirectThroughWrap(t *testing.T) {
	err := fmt.Errorf("lookup: %w", Redirect{Location: "/auth/sign-in"})

	r, ok := AsRedirect(err)
	require.True(t, ok)
	require.Equal(t, "/auth/sign-in", r.Location)

	_, ok = AsRedirect(fmt.Errorf("boom"))
	require.False(t, ok)
}

func TestEnvelopeConstructors(t *testing.T) {
	ok := OK("id-1", "created")
	require.True(t, ok.Success)
	require.Equal(t, "id-1", ok.Data)

	fail := Fail[string]("Account not found")
	require.False(t, fail.Success)
	require.Equal(t, "Account not found", fail.Message)
}

func TestFromPassesRedirectThrough(t *testing.T) {
	redirect := fmt.Errorf("session: %w", Redirect{Location: "/auth/sign-in"})

	res, err := From[string](redirect)
	require.Same(t, redirect, err)
	require.False(t, res.Success)
	require.Empty(t, res.Message)
}

func TestFromBaseError(t *testing.T) {
	res, err := From[string](errutil.NotFound("Account not found", nil))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Account not found", res.Message)

	res, err = From[string](fmt.Errorf("driver: bad connection"))
	require.NoError(t, err)
	require.Equal(t, "Something went wrong. Please try again.", res.Message)
}
