package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Empty(t *testing.T) {
	code, stdout, _ := runCLI(t, "config")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No configuration set")
}

func TestConfig_ShowFormats(t *testing.T) {
	cfg := writeFile(t, "cfg.yaml", "filter: vep-csq\n")

	code, stdout, stderr := runCLI(t, "--config", cfg, "config")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "filter: vep-csq\n", stdout)

	code, stdout, stderr = runCLI(t, "--config", cfg, "config", "--format", "toml")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "filter = ")
	assert.Contains(t, stdout, "vep-csq")

	code, _, _ = runCLI(t, "--config", cfg, "config", "--format", "json")
	assert.Equal(t, ExitUsage, code)
}

func TestConfig_SetGet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out, errOut bytes.Buffer
	code := run([]string{"config", "set", "filter", "vep-csq"}, &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())

	data, err := os.ReadFile(filepath.Join(home, ".vcfdistil.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "filter: vep-csq")

	out.Reset()
	code = run([]string{"config", "get", "filter"}, &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Equal(t, "vep-csq\n", out.String())
}

func TestConfig_FilterDefault(t *testing.T) {
	cfg := writeFile(t, "cfg.yaml", "filter: no-such-filter\n")
	path := writeFile(t, "in.vcf", testVCF)

	code, _, stderr := runCLI(t, "--config", cfg, path)
	assert.Equal(t, ExitFileIO, code)
	assert.Contains(t, stderr, "no-such-filter")
}

func TestConfig_Env(t *testing.T) {
	path := writeFile(t, "in.vcf", testVCF)
	t.Setenv("VCFDISTIL_FILTER", "no-such-filter")

	var out, errOut bytes.Buffer
	t.Setenv("HOME", t.TempDir())
	code := run([]string{path}, &out, &errOut)
	assert.Equal(t, ExitFileIO, code)
}

func TestConfig_GetUnset(t *testing.T) {
	code, _, stderr := runCLI(t, "config", "get", "nothing")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "is not set")
}
