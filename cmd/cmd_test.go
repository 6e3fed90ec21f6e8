package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tu "github.com/alec-rabold/shieldspy/internal/testutil"
	"github.com/opencontainers/go-digest"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T) string {
	t.Helper()
	data := tu.BuildArchive(t, []tu.TestDir{
		{Name: "DOCS", Files: []tu.TestFile{
			{Name: "readme.txt", Payload: tu.Implode(t, tu.ReadmeImploded)},
			{Name: "hello.txt", Payload: tu.Implode(t, tu.HelloImploded)},
		}},
	}).Data
	name := filepath.Join(t.TempDir(), "DATA.Z")
	require.NoError(t, os.WriteFile(name, data, 0644))
	return name
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, args...)
	return out, err
}

func runWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	bucket, key, files = "", "", nil
	listLong, listDigest = false, false
	require.NoError(t, extractCmd.Flags().Set("jobs", "1"))

	var out, stderr bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := rootCmd.Execute()
	return out.String(), stderr.String(), err
}

func TestListCommand(t *testing.T) {
	name := writeArchive(t)

	out, err := run(t, "list", name)
	require.NoError(t, err)
	assert.Equal(t, "DOCS\\readme.txt\nDOCS\\hello.txt\n", out)

	out, err = run(t, "list", "--long", name)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"22", "0", `DOCS\readme.txt`}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"13", "22", `DOCS\hello.txt`}, strings.Fields(lines[1]))

	out, err = run(t, "list", "--digest", name)
	require.NoError(t, err)
	assert.Contains(t, out, digest.FromString(tu.ReadmeText).String()+"  DOCS\\readme.txt\n")
	assert.Contains(t, out, digest.FromString(tu.HelloText).String()+"  DOCS\\hello.txt\n")
}

func TestListCommandErrors(t *testing.T) {
	_, err := run(t, "list")
	assert.Error(t, err)

	_, err = run(t, "list", filepath.Join(t.TempDir(), "missing.z"))
	assert.Error(t, err)
}

func TestExtractCommand(t *testing.T) {
	name := writeArchive(t)
	dest := t.TempDir()

	out, err := run(t, "extract", "--jobs", "2", name, dest)
	require.NoError(t, err)
	assert.Contains(t, out, "DOCS\\readme.txt\n      Compressed size:         22\n    Uncompressed size:         16\n")

	b, err := os.ReadFile(filepath.Join(dest, "DOCS", "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, tu.ReadmeText, string(b))
	b, err = os.ReadFile(filepath.Join(dest, "DOCS", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, tu.HelloText, string(b))
}

func TestExtractCommandFilter(t *testing.T) {
	name := writeArchive(t)
	dest := t.TempDir()

	_, err := run(t, "extract", "-f", "hello", name, dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "DOCS", "hello.txt"))
	_, err = os.Stat(filepath.Join(dest, "DOCS", "readme.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractCommandErrors(t *testing.T) {
	name := writeArchive(t)

	_, err := run(t, "extract", name)
	assert.Error(t, err)

	_, err = run(t, "extract", name, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExtractCommandReportsErrorOnce(t *testing.T) {
	data := tu.BuildArchive(t, []tu.TestDir{
		{Name: "DOCS", Files: []tu.TestFile{
			{Name: "broken.txt", Payload: []byte{0x07, 0x04}},
		}},
	}).Data
	name := filepath.Join(t.TempDir(), "DATA.Z")
	require.NoError(t, os.WriteFile(name, data, 0644))

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	out, stderr, err := runWithStderr(t, "extract", name, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(out+stderr, "Error:"), out+stderr)
	assert.Empty(t, logs.String())
}
