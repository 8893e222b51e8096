package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jward/dataminer/internal/character"
)

// InsertPolicy decides what happens when a flushed row collides with an
// existing primary key.
type InsertPolicy int

const (
	// FailOnConflict aborts the flush on a duplicate key.
	FailOnConflict InsertPolicy = iota
	// IgnoreConflicts skips duplicate keys so re-runs are idempotent.
	IgnoreConflicts
)

func (p InsertPolicy) String() string {
	if p == IgnoreConflicts {
		return "ignore-conflicts"
	}
	return "fail-on-conflict"
}

// BucketSpec names the table and insert policy of one character bucket.
type BucketSpec struct {
	Table  string
	Policy InsertPolicy
}

// Only the common bucket tolerates duplicates. Promoted and top-tier rows are
// inserted plainly, so a second run against the same file fails there.
var bucketSpecs = map[character.Bucket]BucketSpec{
	character.BucketCommon:   {Table: "characters", Policy: IgnoreConflicts},
	character.BucketPromoted: {Table: "heroes", Policy: FailOnConflict},
	character.BucketTopTier:  {Table: "basaras", Policy: FailOnConflict},
}

// SpecFor returns the table and policy for a bucket.
func SpecFor(b character.Bucket) (BucketSpec, error) {
	spec, ok := bucketSpecs[b]
	if !ok {
		return BucketSpec{}, fmt.Errorf("no table for bucket %s", b)
	}
	return spec, nil
}

// CharacterStore holds the three character bucket tables.
type CharacterStore struct {
	*Store
}

// Compile-time check: *CharacterStore satisfies character.Sink.
var _ character.Sink = (*CharacterStore)(nil)

// OpenCharacterStore opens and migrates the character database at path.
func OpenCharacterStore(path string) (*CharacterStore, error) {
	s, err := NewStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.migrate(characterDDL()); err != nil {
		s.Close()
		return nil, err
	}
	return &CharacterStore{Store: s}, nil
}

const characterColumns = `index_id, name_id, element, main_position, alt_position, style, series_id,
  lvl50_kick, lvl50_control, lvl50_technique, lvl50_pressure,
  lvl50_physical, lvl50_agility, lvl50_intelligence,
  lvl99_kick, lvl99_control, lvl99_technique, lvl99_pressure,
  lvl99_physical, lvl99_agility, lvl99_intelligence`

func characterDDL() string {
	var b strings.Builder
	for _, bucket := range character.Buckets {
		fmt.Fprintf(&b, `
CREATE TABLE IF NOT EXISTS %s (
  index_id        INTEGER PRIMARY KEY,
  name_id         INTEGER NOT NULL,
  element         INTEGER NOT NULL,
  main_position   INTEGER NOT NULL,
  alt_position    INTEGER NOT NULL,
  style           INTEGER NOT NULL,
  series_id       INTEGER NOT NULL,

  lvl50_kick          INTEGER,
  lvl50_control       INTEGER,
  lvl50_technique     INTEGER,
  lvl50_pressure      INTEGER,
  lvl50_physical      INTEGER,
  lvl50_agility       INTEGER,
  lvl50_intelligence  INTEGER,

  lvl99_kick          INTEGER,
  lvl99_control       INTEGER,
  lvl99_technique     INTEGER,
  lvl99_pressure      INTEGER,
  lvl99_physical      INTEGER,
  lvl99_agility       INTEGER,
  lvl99_intelligence  INTEGER
);
`, bucketSpecs[bucket].Table)
	}
	return b.String()
}

func insertCharacterSQL(spec BucketSpec) string {
	q := "INSERT INTO " + spec.Table + " (" + characterColumns + ")\n VALUES (" + placeholderList(21) + ")"
	if spec.Policy == IgnoreConflicts {
		q += "\n ON CONFLICT(index_id) DO NOTHING"
	}
	return q
}

func entityArgs(e *character.Entity) []any {
	args := make([]any, 0, 21)
	args = append(args,
		e.Index, e.NameID, int32(e.Element), int32(e.MainPosition), int32(e.AltPosition),
		int32(e.Style), e.SeriesID,
	)
	for _, v := range e.Mid.Values() {
		args = append(args, v)
	}
	for _, v := range e.End.Values() {
		args = append(args, v)
	}
	return args
}

// Flush writes one batch into the bucket's table inside a single exclusive
// transaction. The first failing row aborts the whole batch.
func (c *CharacterStore) Flush(ctx context.Context, bucket character.Bucket, entities []character.Entity) error {
	spec, err := SpecFor(bucket)
	if err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flush %s: begin: %w", spec.Table, err)
	}
	defer tx.Rollback()

	argsList := make([][]any, len(entities))
	for i := range entities {
		argsList[i] = entityArgs(&entities[i])
	}
	if err := execBatch(ctx, tx, insertCharacterSQL(spec), argsList); err != nil {
		return fmt.Errorf("flush %s: %w", spec.Table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flush %s: commit: %w", spec.Table, err)
	}
	return nil
}

// EntityByIndex reads back a persisted entity. Returns nil if absent.
func (c *CharacterStore) EntityByIndex(ctx context.Context, bucket character.Bucket, index int32) (*character.Entity, error) {
	spec, err := SpecFor(bucket)
	if err != nil {
		return nil, err
	}
	row := c.db.QueryRowContext(ctx, "SELECT "+characterColumns+" FROM "+spec.Table+" WHERE index_id = ?", index)

	e := &character.Entity{Bucket: bucket}
	var element, mainPos, altPos, style int32
	err = row.Scan(
		&e.Index, &e.NameID, &element, &mainPos, &altPos, &style, &e.SeriesID,
		&e.Mid.Kick, &e.Mid.Control, &e.Mid.Technique, &e.Mid.Pressure,
		&e.Mid.Physical, &e.Mid.Agility, &e.Mid.Intelligence,
		&e.End.Kick, &e.End.Control, &e.End.Technique, &e.End.Pressure,
		&e.End.Physical, &e.End.Agility, &e.End.Intelligence,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s entity %d: %w", spec.Table, index, err)
	}
	e.Element = character.Element(element)
	e.MainPosition = character.Position(mainPos)
	e.AltPosition = character.Position(altPos)
	e.Style = character.Style(style)
	return e, nil
}

// CountBucket returns the number of rows persisted in a bucket.
func (c *CharacterStore) CountBucket(ctx context.Context, bucket character.Bucket) (int, error) {
	spec, err := SpecFor(bucket)
	if err != nil {
		return 0, err
	}
	return c.CountRows(ctx, spec.Table)
}
