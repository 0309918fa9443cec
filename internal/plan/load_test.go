package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writePlan(t, `
entries: ["clusters", "hosts", "networks", "status", "containers"]
`)

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		[]Entry{"clusters", "hosts", "networks", "status", "containers"},
		p.Entries())
}

func TestLoadFile_SchemaRejectsSlash(t *testing.T) {
	path := writePlan(t, `entries: ["hosts/a"]`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate plan")
}

func TestLoadFile_NonString(t *testing.T) {
	path := writePlan(t, `entries: ["hosts", 42]`)

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_MissingEntries(t *testing.T) {
	path := writePlan(t, `name: "nothing here"`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing entries")
}

func TestLoadFile_Duplicate(t *testing.T) {
	path := writePlan(t, `entries: ["hosts", "hosts"]`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestLoadFile_SyntaxError(t *testing.T) {
	path := writePlan(t, `entries: [`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile plan")
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read plan file")
}
