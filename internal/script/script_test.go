package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setup.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+content), 0o755))
	return path
}

func TestRunSuccess(t *testing.T) {
	path := writeScript(t, `echo "setting up $SCRATCH_ORG against $DEVHUB"`)
	r := ExecRunner{Log: zerolog.Nop()}

	res := r.Run(context.Background(), path, "test-1@example.com", "hub@example.com")

	assert.True(t, res.Success)
	assert.Equal(t, "test-1@example.com", res.Username)
	assert.Contains(t, res.Message, "setting up test-1@example.com against hub@example.com")
}

func TestRunFailure(t *testing.T) {
	path := writeScript(t, "echo deploy failed >&2\nexit 1")
	r := ExecRunner{Log: zerolog.Nop()}

	res := r.Run(context.Background(), path, "test-1@example.com", "hub@example.com")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "deploy failed")
}

func TestRunMissingScript(t *testing.T) {
	r := ExecRunner{Log: zerolog.Nop()}

	res := r.Run(context.Background(), filepath.Join(t.TempDir(), "absent.sh"), "a@example.com", "hub@example.com")
	assert.False(t, res.Success)
}

func TestRunTimeout(t *testing.T) {
	path := writeScript(t, "sleep 10")
	r := ExecRunner{Log: zerolog.Nop(), Timeout: 50 * time.Millisecond}

	start := time.Now()
	res := r.Run(context.Background(), path, "a@example.com", "hub@example.com")

	assert.False(t, res.Success)
	assert.Less(t, time.Since(start), 5*time.Second)
}
