package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcoach/auth"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	tok := run(t, "token", "--user", "u42")

	signer, err := auth.NewSigner("cli-secret", "fitcoach")
	require.NoError(t, err)
	userID, err := signer.Parse(strings.TrimSpace(tok))
	require.NoError(t, err)
	assert.Equal(t, "u42", userID)
}

func TestSeedThenChat(t *testing.T) {
	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("STORE_FILE_ROOT", t.TempDir())
	t.Setenv("MODEL_PROVIDER", "mock")
	t.Setenv("CACHE_BACKEND", "none")

	out := run(t, "seed", "--user", "u7")
	assert.Contains(t, out, "Seeded sample data for u7")

	out = run(t, "chat", "--debug", "--user", "u7", "--log-dir", t.TempDir(), "How", "long", "have", "I", "been", "fasting?")
	assert.NotEmpty(t, out)
}
