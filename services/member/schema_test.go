package member

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInviteMember(t *testing.T) {
	ok := ParseInviteMember(InviteMemberInput{Email: "  Bob@Example.COM", Role: "viewer"})
	require.True(t, ok.OK())
	require.Equal(t, "bob@example.com", ok.Value.Email)

	bad := ParseInviteMember(InviteMemberInput{Email: "not-an-email", Role: "owner"})
	require.False(t, bad.OK())
	fields := []string{}
	for _, d := range bad.Errors {
		fields = append(fields, d.Field)
	}
	require.ElementsMatch(t, []string{"email", "role"}, fields)
}

func TestParseAcceptInvitation(t *testing.T) {
	require.True(t, ParseAcceptInvitation(AcceptInvitationInput{Token: "0b1f7c3e-8a52-4e08-9f0c-3c1b2c8f0a11"}).OK())
	require.False(t, ParseAcceptInvitation(AcceptInvitationInput{Token: "abc"}).OK())
}

func TestParseUpdateStatus(t *testing.T) {
	blank := "   "
	res := ParseUpdateStatus(UpdateStatusInput{UserID: "1780000000000000000", Status: "inactive", Reason: &blank})
	require.True(t, res.OK())
	require.Nil(t, res.Value.Reason)

	long := strings.Repeat("x", MaxReasonLength+1)
	require.False(t, ParseUpdateStatus(UpdateStatusInput{UserID: "1780000000000000000", Status: "inactive", Reason: &long}).OK())
	require.False(t, ParseUpdateStatus(UpdateStatusInput{UserID: "1780000000000000000", Status: "deleted"}).OK())
}

func TestParseUploadAvatar(t *testing.T) {
	cases := []struct {
		contentType string
		size        int64
		ext         string
		ok          bool
	}{
		{"image/png", 1024, "png", true},
		{"IMAGE/JPEG", 1024, "jpg", true},
		{"image/webp", MaxAvatarBytes, "webp", true},
		{"image/svg+xml", 1024, "", false},
		{"image/gif", 0, "", false},
		{"image/gif", MaxAvatarBytes + 1, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.contentType, func(t *testing.T) {
			res := ParseUploadAvatar(UploadAvatarInput{ContentType: tc.contentType, Size: tc.size})
			require.Equal(t, tc.ok, res.OK())
			require.Equal(t, tc.ext, res.Value)
		})
	}
}
