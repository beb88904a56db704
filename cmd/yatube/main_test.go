package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/forms"
)

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	yaml := "database:\n  dsn: " + filepath.Join(dir, "cli.db") + "\nstorage:\n  local:\n    base_path: " + filepath.Join(dir, "media") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	return dir
}

func TestGroupCreateAndList(t *testing.T) {
	dir := writeConfig(t)

	out, err := runCLI(t, dir, "group", "create", "--title", "Коты", "--slug", "cats", "--description", "про котов")
	require.NoError(t, err)
	assert.Contains(t, out, "created group 1 cats")

	_, err = runCLI(t, dir, "group", "create", "--title", "Again", "--slug", "cats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug:")

	out, err = runCLI(t, dir, "group", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cats\tКоты")
}

func TestSeed(t *testing.T) {
	dir := writeConfig(t)

	out, err := runCLI(t, dir, "seed", "--users", "3", "--posts", "2", "--follows", "0", "--groups", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "users=3 groups=1 posts=6 follows=0")
}

func TestSessionsPurgeAndMigrate(t *testing.T) {
	dir := writeConfig(t)

	_, err := runCLI(t, dir, "migrate")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "sessions", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 0 expired sessions")
}

func TestCacheClear_RequiresRedis(t *testing.T) {
	_, err := runCLI(t, writeConfig(t), "cache", "clear")
	assert.Error(t, err)
}

func TestFormErrorIsSorted(t *testing.T) {
	err := formError(forms.Errors{"slug": "bad", "title": "missing"})
	assert.EqualError(t, err, "slug: bad; title: missing")
}

func TestPercentile(t *testing.T) {
	vs := []time.Duration{5, 1, 4, 2, 3}
	assert.Equal(t, time.Duration(3), percentile(vs, 0.5))
	assert.Equal(t, time.Duration(5), percentile(vs, 0.99))
	assert.Zero(t, percentile(nil, 0.5))
}

func TestBench_AfterSeed(t *testing.T) {
	dir := writeConfig(t)
	_, err := runCLI(t, dir, "seed", "--users", "2", "--posts", "3", "--follows", "2", "--groups", "0")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "bench", "cache", "--requests", "20", "--pages", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "requests=20 pages=2")
	assert.Contains(t, out, "hit rate:")

	out, err = runCLI(t, dir, "bench", "feed", "--viewers", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "viewers=2")
}
