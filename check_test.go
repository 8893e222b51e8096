package dataminer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_AfterMine(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	mine(t, cfg, testSources())

	results, err := newTestMiner(cfg).Check(context.Background())
	require.NoError(t, err)

	byName := make(map[string]CheckResult, len(results))
	for _, r := range results {
		assert.Empty(t, r.Err, r.Name)
		byName[r.Name] = r
	}

	names := byName["name_consistency"]
	require.NotNil(t, names.Findings)
	assert.Equal(t, "en", names.Findings["locale"])
	assert.Equal(t, int64(3), names.Findings["checked"])
	assert.Equal(t, int64(0), names.Findings["missing"])

	roma := byName["roma_duplicates"]
	require.NotNil(t, roma.Findings)
	assert.Equal(t, int64(2), roma.Findings["compared"])
	assert.Equal(t, int64(1), roma.Findings["different"])
	assert.Equal(t, []any{int64(501)}, roma.Findings["different_ids"])
	assert.Equal(t, int64(0), roma.Findings["only_in_compare"])
	assert.Equal(t, false, roma.Findings["identical"])
}

func TestCheck_NameConsistencyAgainstIncompleteLocale(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Check.ReferenceLocale = "ja"
	cfg.Check.CompareLocale = "en"
	mine(t, cfg, testSources())

	results, err := newTestMiner(cfg).Check(context.Background())
	require.NoError(t, err)

	for _, r := range results {
		if r.Name != "name_consistency" {
			continue
		}
		assert.Equal(t, int64(2), r.Findings["missing"])
		assert.Equal(t, []any{int64(501), int64(501)}, r.Findings["missing_ids"])
	}
}

func TestCheck_RequiresMinedOutput(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	_, err := newTestMiner(cfg).Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataminer mine")
}

func TestCheck_LeavesStoresUntouched(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	paths := []string{cfg.CharacterDBPath()}
	for _, l := range cfg.Text.Locales {
		paths = append(paths, cfg.TextDBPath(l))
	}
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}

	_, err := newTestMiner(cfg).Check(context.Background())
	require.Error(t, err)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Zero(t, info.Size(), "%s was written by check", p)
	}
}
