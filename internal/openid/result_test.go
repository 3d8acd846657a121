package openid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResult_ClampsUnknownNegativeCodes(t *testing.T) {
	cases := []struct {
		in   Code
		want Code
	}{
		{Code(-7), Failure},
		{Code(-6), Failure},
		{FailureUncategorized, FailureUncategorized},
		{FailureDuplicateEmail, FailureDuplicateEmail},
		{Failure, Failure},
		{Success, Success},
		{SuccessNeedExtraData, SuccessNeedExtraData},
	}
	for _, tc := range cases {
		t.Run(tc.in.String(), func(t *testing.T) {
			require.Equal(t, tc.want, NewResult(tc.in, nil).Code())
		})
	}
}

func TestResult_WithIdentityKeepsCode(t *testing.T) {
	r := NewResult(Success, map[string]any{"profile": map[string]any{"identity": "x"}}, "ok")
	r.WithIdentity(map[string]any{"id": int64(42)})

	require.Equal(t, Success, r.Code())
	require.Equal(t, int64(42), r.Identity()["id"])
	require.Equal(t, []string{"ok"}, r.Messages())
	require.True(t, r.IsValid())
}

func TestResult_MessagesAreCopied(t *testing.T) {
	r := NewResult(Failure, nil, "Error received from provider")
	msgs := r.Messages()
	msgs[0] = "mutated"
	require.Equal(t, "Error received from provider", r.Messages()[0])
	require.False(t, r.IsValid())
}

func TestCode_String(t *testing.T) {
	require.Equal(t, "SUCCESS_NEED_EXTRA_DATA", SuccessNeedExtraData.String())
	require.Equal(t, "CODE(9)", Code(9).String())
}
