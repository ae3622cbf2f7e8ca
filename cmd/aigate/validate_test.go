package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), defaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunValidateValid(t *testing.T) {
	cfgFile = writeConfig(t, `
ai:
  enabled: true
  provider: local
server:
  listen: ":8089"
logging:
  level: info
  format: json
`)
	t.Cleanup(func() { cfgFile = "" })

	assert.NoError(t, runValidate(nil, nil))
}

func TestRunValidateInvalid(t *testing.T) {
	cfgFile = writeConfig(t, `
ai:
  provider: nonsense
server:
  listen: ":8089"
`)
	t.Cleanup(func() { cfgFile = "" })

	assert.Error(t, runValidate(nil, nil))
}

func TestRunValidateMissingFile(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() { cfgFile = "" })

	assert.Error(t, runValidate(nil, nil))
}
