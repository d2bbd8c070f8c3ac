package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig points the ticket store at a temp database.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "faqline.yaml")
	content := "tickets:\n  db_path: " + filepath.Join(dir, "tickets.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestModerateSuggestListReject(t *testing.T) {
	cfg := writeTestConfig(t)

	out := runCommand(t, cfg, "moderate", "suggest", "How to open an account?", "New answer.", "--note", "typo")
	require.Contains(t, out, "Ticket filed: ")
	token := strings.TrimSpace(strings.TrimPrefix(out, "Ticket filed: "))

	out = runCommand(t, cfg, "moderate", "list")
	assert.Contains(t, out, token)
	assert.Contains(t, out, "How to open an account?")
	assert.Contains(t, out, "Note: typo")

	out = runCommand(t, cfg, "moderate", "reject", token)
	assert.Contains(t, out, "rejected")

	out = runCommand(t, cfg, "moderate", "list")
	assert.Contains(t, out, "No pending tickets.")

	out = runCommand(t, cfg, "moderate", "stats")
	assert.Contains(t, out, "pending: 0")
	assert.Contains(t, out, "rejected: 1")
}
