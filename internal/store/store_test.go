package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/dataminer/internal/character"
)

func newCharacterStore(t *testing.T) *CharacterStore {
	t.Helper()
	s, err := OpenCharacterStore(filepath.Join(t.TempDir(), "characters.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTextStore(t *testing.T) *TextStore {
	t.Helper()
	s, err := OpenTextStore(filepath.Join(t.TempDir(), "en.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntity(index int32, bucket character.Bucket) character.Entity {
	return character.Entity{
		Index:        index,
		NameID:       500 + index,
		SeriesID:     3,
		Element:      character.ElementFire,
		MainPosition: character.PositionFW,
		AltPosition:  character.PositionMF,
		Style:        character.StyleBond,
		Mid:          character.Stats{Kick: 14, Control: 14, Technique: 14, Pressure: 14, Physical: 14, Agility: 14, Intelligence: 14},
		End:          character.Stats{Kick: 20, Control: 20, Technique: 20, Pressure: 20, Physical: 20, Agility: 20, Intelligence: 20},
		Bucket:       bucket,
	}
}

func tableExists(t *testing.T, s *Store, table string) bool {
	t.Helper()
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestOpenCharacterStore_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newCharacterStore(t)

	for _, table := range []string{"metadata", "characters", "heroes", "basaras"} {
		assert.True(t, tableExists(t, s.Store, table), "table %s should exist", table)
	}
}

func TestOpenTextStore_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTextStore(t)

	for _, table := range []string{"metadata", TableNames, TableRomaNames, TableDescriptions, TableSeries} {
		assert.True(t, tableExists(t, s.Store, table), "table %s should exist", table)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "characters.sqlite")

	s, err := OpenCharacterStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background(), character.BucketCommon, []character.Entity{testEntity(1, character.BucketCommon)}))
	require.NoError(t, s.Close())

	s, err = OpenCharacterStore(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountBucket(context.Background(), character.BucketCommon)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenReadOnly_RejectsWrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "en.sqlite")
	rw, err := OpenTextStore(path)
	require.NoError(t, err)
	require.NoError(t, rw.SetMetadata(context.Background(), "run_id", "r1"))
	require.NoError(t, rw.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	got, err := ro.GetMetadata(context.Background(), "run_id")
	require.NoError(t, err)
	assert.Equal(t, "r1", got)

	assert.Error(t, ro.SetMetadata(context.Background(), "run_id", "r2"))
	_, err = ro.DB().Exec("CREATE TABLE extra (id INTEGER)")
	assert.Error(t, err)
	assert.False(t, tableExists(t, ro, "extra"))
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "absent.sqlite")
	_, err := OpenReadOnly(path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestMetadata_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newCharacterStore(t)
	ctx := context.Background()

	v, err := s.GetMetadata(ctx, "run_id")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata(ctx, "run_id", "first"))
	require.NoError(t, s.SetMetadata(ctx, "run_id", "second"))

	v, err = s.GetMetadata(ctx, "run_id")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

// =============================================================================
// Character buckets
// =============================================================================

func TestSpecFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bucket character.Bucket
		table  string
		policy InsertPolicy
	}{
		{character.BucketCommon, "characters", IgnoreConflicts},
		{character.BucketPromoted, "heroes", FailOnConflict},
		{character.BucketTopTier, "basaras", FailOnConflict},
	}
	for _, tt := range tests {
		t.Run(tt.bucket.String(), func(t *testing.T) {
			t.Parallel()
			spec, err := SpecFor(tt.bucket)
			require.NoError(t, err)
			assert.Equal(t, tt.table, spec.Table)
			assert.Equal(t, tt.policy, spec.Policy)
		})
	}

	_, err := SpecFor(character.Bucket(42))
	assert.Error(t, err)
}

func TestFlush_PersistsEntity(t *testing.T) {
	t.Parallel()
	s := newCharacterStore(t)
	ctx := context.Background()

	want := testEntity(12, character.BucketTopTier)
	require.NoError(t, s.Flush(ctx, character.BucketTopTier, []character.Entity{want}))

	got, err := s.EntityByIndex(ctx, character.BucketTopTier, 12)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	missing, err := s.EntityByIndex(ctx, character.BucketCommon, 12)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFlush_CommonIgnoresDuplicates(t *testing.T) {
	t.Parallel()
	s := newCharacterStore(t)
	ctx := context.Background()

	first := testEntity(7, character.BucketCommon)
	second := first
	second.NameID = 9999

	require.NoError(t, s.Flush(ctx, character.BucketCommon, []character.Entity{first}))
	require.NoError(t, s.Flush(ctx, character.BucketCommon, []character.Entity{second, testEntity(8, character.BucketCommon)}))

	n, err := s.CountBucket(ctx, character.BucketCommon)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.EntityByIndex(ctx, character.BucketCommon, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.NameID, got.NameID, "first write wins")
}

func TestFlush_PromotedFailsOnDuplicate(t *testing.T) {
	t.Parallel()
	s := newCharacterStore(t)
	ctx := context.Background()

	require.NoError(t, s.Flush(ctx, character.BucketPromoted, []character.Entity{testEntity(3, character.BucketPromoted)}))

	err := s.Flush(ctx, character.BucketPromoted, []character.Entity{
		testEntity(4, character.BucketPromoted),
		testEntity(3, character.BucketPromoted),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heroes")

	// The failed batch rolls back as a whole.
	n, err := s.CountBucket(ctx, character.BucketPromoted)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFlush_EmptyBatch(t *testing.T) {
	t.Parallel()
	s := newCharacterStore(t)
	require.NoError(t, s.Flush(context.Background(), character.BucketCommon, nil))
}

// =============================================================================
// Text
// =============================================================================

func TestWriteBatch(t *testing.T) {
	t.Parallel()
	s := newTextStore(t)
	ctx := context.Background()

	batch := TextBatch{
		Names:        []TextRow{{ID: 500, Text: "Mark Evans"}},
		RomaNames:    []TextRow{{ID: 500, Text: "Endou Mamoru"}},
		Descriptions: []TextRow{{ID: 900, Text: "Raimon's keeper."}},
	}
	assert.Equal(t, 3, batch.Len())
	require.NoError(t, s.WriteBatch(ctx, batch))

	// Duplicates are ignored and keep the first text.
	require.NoError(t, s.WriteBatch(ctx, TextBatch{Names: []TextRow{{ID: 500, Text: "other"}}}))

	name, ok, err := s.Lookup(ctx, TableNames, 500)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Mark Evans", name)

	roma, ok, err := s.Lookup(ctx, TableRomaNames, 500)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Endou Mamoru", roma)

	desc, ok, err := s.Lookup(ctx, TableDescriptions, 900)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Raimon's keeper.", desc)

	_, ok, err = s.Lookup(ctx, TableNames, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteSeries(t *testing.T) {
	t.Parallel()
	s := newTextStore(t)
	ctx := context.Background()

	rows := []TextRow{{ID: 1, Text: "Inazuma Eleven"}, {ID: 2, Text: "GO"}}
	require.NoError(t, s.WriteSeries(ctx, rows))
	require.NoError(t, s.WriteSeries(ctx, rows))

	n, err := s.CountRows(ctx, TableSeries)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPlaceholderList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", placeholderList(0))
	assert.Equal(t, "?", placeholderList(1))
	assert.Equal(t, "?,?,?", placeholderList(3))
}
