package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0644))
	}
}

var testRules = []Rule{
	{Name: "chara_base", Pattern: `^chara_base_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`},
	{Name: "chara_param", Pattern: `^chara_param_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`},
}

func TestMatch_GreatestNameWins(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t, dir,
		"chara_base_1.0.0.0.cfg.bin.json",
		"chara_base_1.2.0.0.cfg.bin.json",
		"chara_param_1.0.0.0.cfg.bin.json",
		"chara_param_1.0.0.0.cfg.bin", // not a dump
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "chara_base_9.9.9.9.cfg.bin.json"), 0755))

	got, err := Match(dir, testRules)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"chara_base":  filepath.Join(dir, "chara_base_1.2.0.0.cfg.bin.json"),
		"chara_param": filepath.Join(dir, "chara_param_1.0.0.0.cfg.bin.json"),
	}, got)
}

func TestMatch_Missing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t, dir, "chara_param_1.0.0.0.cfg.bin.json")

	got, err := Match(dir, testRules)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFiles)

	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"chara_base"}, missing.Rules)
	assert.Len(t, got, 1)
}

func TestMatch_MissingDir(t *testing.T) {
	t.Parallel()
	_, err := Match(filepath.Join(t.TempDir(), "nope"), testRules)

	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"chara_base", "chara_param"}, missing.Rules)
}

func TestMatch_BadPattern(t *testing.T) {
	t.Parallel()
	_, err := Match(t.TempDir(), []Rule{{Name: "bad", Pattern: "(["}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingFiles)
}

func TestPrepareOutput(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "output")

	require.NoError(t, PrepareOutput(out, "text", false))
	assert.DirExists(t, filepath.Join(out, "text"))

	keep := filepath.Join(out, "characters.sqlite")
	touch(t, out, "characters.sqlite")

	require.NoError(t, PrepareOutput(out, "text", false))
	assert.FileExists(t, keep, "kept without fresh")

	require.NoError(t, PrepareOutput(out, "text", true))
	assert.NoFileExists(t, keep)
	assert.DirExists(t, filepath.Join(out, "text"))
}
