package text

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/dataminer/internal/character"
	"github.com/jward/dataminer/internal/gamedata"
	"github.com/jward/dataminer/internal/gamedata/gamedatatest"
	"github.com/jward/dataminer/internal/store"
)

func testSources() Sources {
	return Sources{
		Names: gamedatatest.NounTable(
			gamedatatest.Noun(500, 0, "Mark Evans"),
			gamedatatest.Noun(500, 1, "Mark (alt)"),
			gamedatatest.Noun(501, 0, "Axel Blaze"),
		),
		RomaNames: gamedatatest.NounTable(
			gamedatatest.Noun(500, 0, "Endou Mamoru"),
		),
		Descriptions: gamedatatest.DescriptionTable(
			gamedatatest.Description(900, "Keeper."),
			gamedatatest.Description(901, "Striker."),
		),
		Series: gamedatatest.NounTable(
			gamedatatest.Noun(1, 0, "Inazuma Eleven"),
			gamedatatest.Noun(2, 3, "GO"),
		),
	}
}

func newWriter(t *testing.T, locale string, src Sources) (*LocaleWriter, *store.TextStore) {
	t.Helper()
	st, err := store.OpenTextStore(filepath.Join(t.TempDir(), locale+".sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	idx, err := BuildIndex(locale, src, nil)
	require.NoError(t, err)
	return NewLocaleWriter(st, idx), st
}

func feed(reqs ...character.NameRequest) <-chan character.NameRequest {
	ch := make(chan character.NameRequest, len(reqs))
	for _, r := range reqs {
		ch <- r
	}
	close(ch)
	return ch
}

func lookup(t *testing.T, st *store.TextStore, table string, id int32) (string, bool) {
	t.Helper()
	v, ok, err := st.Lookup(context.Background(), table, id)
	require.NoError(t, err)
	return v, ok
}

// =============================================================================
// Index
// =============================================================================

func TestBuildIndex_VariantFilter(t *testing.T) {
	t.Parallel()

	idx, err := BuildIndex("en", testSources(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Mark Evans", idx.Names[500])
	assert.Equal(t, "Axel Blaze", idx.Names[501])
	assert.Len(t, idx.Names, 2)
	assert.Zero(t, idx.Duplicates, "alternate phrasings are not duplicates")

	// Series has no variant filter.
	assert.Len(t, idx.Series, 2)
}

func TestBuildIndex_DuplicateLastWins(t *testing.T) {
	t.Parallel()

	src := Sources{
		Names: gamedatatest.NounTable(
			gamedatatest.Noun(7, 0, "first"),
			gamedatatest.Noun(7, 0, "second"),
		),
		Descriptions: gamedatatest.DescriptionTable(
			gamedatatest.Description(3, "a"),
			gamedatatest.Description(3, "b"),
		),
	}
	idx, err := BuildIndex("fr", src, nil)
	require.NoError(t, err)

	assert.Equal(t, "second", idx.Names[7])
	assert.Equal(t, "b", idx.Descriptions[3])
	assert.Equal(t, 2, idx.Duplicates)
}

func TestBuildIndex_BadCell(t *testing.T) {
	t.Parallel()

	row := gamedatatest.Noun(1, 0, "x")
	row[5] = gamedata.Int(3)
	_, err := BuildIndex("en", Sources{Names: gamedatatest.NounTable(row)}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gamedata.ErrCellType)
}

// =============================================================================
// Resolver
// =============================================================================

func TestResolver_WritesAndCountsMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	en, enStore := newWriter(t, "en", testSources())
	ja, jaStore := newWriter(t, "ja", Sources{
		Names: gamedatatest.NounTable(gamedatatest.Noun(501, 0, "Gouenji Shuuya")),
	})

	r := NewResolver([]*LocaleWriter{en, ja})
	require.NoError(t, r.Start(ctx))

	rep, err := r.Run(ctx, feed(
		character.NameRequest{NameID: 500, DescriptionID: 900},
		character.NameRequest{NameID: 501, DescriptionID: 999},
		character.NameRequest{NameID: 502, DescriptionID: 901},
	))
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Requests)
	assert.Equal(t, 1, rep.Flushes)
	assert.Equal(t, map[string]int{"en": 1, "ja": 2}, rep.Missing)
	assert.Equal(t, 3, rep.TotalMissing)
	assert.Equal(t, []string{"en", "ja"}, rep.Locales())

	name, ok := lookup(t, enStore, store.TableNames, 500)
	assert.True(t, ok)
	assert.Equal(t, "Mark Evans", name)

	roma, ok := lookup(t, enStore, store.TableRomaNames, 500)
	assert.True(t, ok)
	assert.Equal(t, "Endou Mamoru", roma)

	_, ok = lookup(t, enStore, store.TableRomaNames, 501)
	assert.False(t, ok)

	// Description lookups are independent of whether the name resolved.
	desc, ok := lookup(t, enStore, store.TableDescriptions, 901)
	assert.True(t, ok)
	assert.Equal(t, "Striker.", desc)

	name, ok = lookup(t, jaStore, store.TableNames, 501)
	assert.True(t, ok)
	assert.Equal(t, "Gouenji Shuuya", name)

	n, err := enStore.CountRows(ctx, store.TableSeries)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestResolver_FlushesAtBatchSize(t *testing.T) {
	t.Parallel()

	en, enStore := newWriter(t, "en", testSources())
	r := NewResolver([]*LocaleWriter{en}, WithBatchSize(2))

	rep, err := r.Run(context.Background(), feed(
		character.NameRequest{NameID: 500},
		character.NameRequest{NameID: 501},
		character.NameRequest{NameID: 500},
		character.NameRequest{NameID: 501},
		character.NameRequest{NameID: 500},
	))
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Flushes)
	assert.Equal(t, 5, rep.Requests)
	assert.Zero(t, rep.TotalMissing)

	n, err := enStore.CountRows(context.Background(), store.TableNames)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestResolver_EmptyChannel(t *testing.T) {
	t.Parallel()

	en, _ := newWriter(t, "en", testSources())
	rep, err := NewResolver([]*LocaleWriter{en}).Run(context.Background(), feed())
	require.NoError(t, err)
	assert.Zero(t, rep.Flushes)
	assert.Equal(t, map[string]int{"en": 0}, rep.Missing)
}

func TestResolver_Cancelled(t *testing.T) {
	t.Parallel()

	en, _ := newWriter(t, "en", testSources())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	open := make(chan character.NameRequest)
	_, err := NewResolver([]*LocaleWriter{en}).Run(ctx, open)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolver_StoreFailure(t *testing.T) {
	t.Parallel()

	en, enStore := newWriter(t, "en", testSources())
	require.NoError(t, enStore.Close())

	_, err := NewResolver([]*LocaleWriter{en}).Run(context.Background(), feed(character.NameRequest{NameID: 500}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "en")
}
