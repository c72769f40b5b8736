package extension

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserManifest(t *testing.T, capability, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("REGLET_EXTENSIONS_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, capability), []byte(content), 0o644))
}

func Test_readManifests_grammar(t *testing.T) {
	writeUserManifest(t, "test.Grammar", `
# a comment line
en = pkg.English   # trailing comment
fr=pkg.French

multi,alias=pkg.Multi
pkg.DerivedGrammar
`)

	table, err := readManifests("test.Grammar")
	require.NoError(t, err)
	assert.Equal(t, "pkg.English", table.keys["en"])
	assert.Equal(t, "pkg.French", table.keys["fr"])
	assert.Equal(t, "pkg.Multi", table.keys["multi"])
	assert.Equal(t, "pkg.Multi", table.keys["alias"])
	assert.Equal(t, "pkg.DerivedGrammar", table.keys["derived"]) // "DerivedGrammar" minus suffix "Grammar", lowercased
}

func Test_readManifests_duplicateNameDifferentClass(t *testing.T) {
	writeUserManifest(t, "test.Conflict", "foo=pkgA.Foo\nfoo=pkgB.Foo\n")

	_, err := readManifests("test.Conflict")
	require.Error(t, err)
	var manifestErr *ManifestError
	require.ErrorAs(t, err, &manifestErr)
}

func Test_readManifests_missingResource(t *testing.T) {
	t.Setenv("REGLET_EXTENSIONS_DIR", t.TempDir())
	table, err := readManifests("test.NothingHere")
	require.NoError(t, err)
	assert.Empty(t, table.keys)
}

func Test_deriveName(t *testing.T) {
	assert.Equal(t, "en", deriveName("pkg.EnGreeter", "pkg.Greeter"))
	assert.Equal(t, "", deriveName("pkg.Something", "pkg.Greeter"))
}
