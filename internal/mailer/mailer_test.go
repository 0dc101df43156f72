package mailer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunWritesFile(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{DryRun: true, OutDir: dir, From: "gym@example.com"})

	err := m.Send("member@example.com", "Welcome", "Hello and welcome!", false)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "To: member@example.com")
	assert.Contains(t, string(content), "Subject: Welcome")
	assert.Contains(t, string(content), "Hello and welcome!")
	assert.Contains(t, string(content), "text/plain")
}

func TestDryRunHTMLContentType(t *testing.T) {
	dir := t.TempDir()
	m := New(Config{DryRun: true, OutDir: dir, From: "gym@example.com"})

	require.NoError(t, m.Send("member@example.com", "Hi", "<b>Hi</b>", true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "text/html")
}

func TestConfigFromEnvFallsBackToDryRun(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	t.Setenv("MAIL_DRY_RUN", "")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.DryRun, "missing SMTP host must force dry-run")
	assert.Equal(t, "587", cfg.Port)
}
