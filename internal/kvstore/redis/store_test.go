package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeGlob(t *testing.T) {
	tests := map[string]string{
		"cache:":     "cache:",
		"cache_tag:": "cache_tag:",
		"a*b":        `a\*b`,
		"q?":         `q\?`,
		"[x]":        `\[x\]`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range tests {
		require.Equal(t, want, escapeGlob(in), in)
	}
}

func TestNew_EmptyAddr(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
}
