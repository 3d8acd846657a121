package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	require.Equal(t, "j***@mail.ru", MaskEmail("JohnDoe@mail.ru "))
	require.Equal(t, "***", MaskEmail("nope"))
	require.Equal(t, "***", MaskEmail("@mail.ru"))
}

func TestMaskSecret(t *testing.T) {
	require.Equal(t, "******pkey", MaskSecret("yourapikey"))
	require.Equal(t, "***", MaskSecret("abc"))
}
