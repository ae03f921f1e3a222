package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadKeysPreservesOrder(t *testing.T) {
	path := writeKeyFile(t, "nombre,ruc\nuno,20100047218\ndos,20100047219\ntres,20100047220\n")

	keys, err := LoadKeys(path, "ruc")
	require.NoError(t, err)
	assert.Equal(t, []string{"20100047218", "20100047219", "20100047220"}, keys)
}

func TestLoadKeysColumnMatchIsCaseInsensitive(t *testing.T) {
	path := writeKeyFile(t, "RUC\n20100047218\n")

	keys, err := LoadKeys(path, "ruc")
	require.NoError(t, err)
	assert.Equal(t, []string{"20100047218"}, keys)
}

func TestLoadKeysSkipsBlanks(t *testing.T) {
	path := writeKeyFile(t, "dni\n45671234\n\n  \n45671235\n")

	keys, err := LoadKeys(path, "dni")
	require.NoError(t, err)
	assert.Equal(t, []string{"45671234", "45671235"}, keys)
}

func TestLoadKeysMissingColumn(t *testing.T) {
	path := writeKeyFile(t, "nombre\nuno\n")

	_, err := LoadKeys(path, "ruc")
	assert.ErrorContains(t, err, `no "ruc" column`)
}

func TestLoadKeysMissingFile(t *testing.T) {
	_, err := LoadKeys(filepath.Join(t.TempDir(), "nope.csv"), "ruc")
	assert.Error(t, err)
}
