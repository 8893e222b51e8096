package store

import (
	"context"
	"fmt"
)

// TextRow is one resolved string keyed by its text id.
type TextRow struct {
	ID   int32
	Text string
}

// TextBatch is the set of rows one resolver flush writes to a locale.
type TextBatch struct {
	Names        []TextRow
	RomaNames    []TextRow
	Descriptions []TextRow
}

// Len returns the total number of rows in the batch.
func (b TextBatch) Len() int {
	return len(b.Names) + len(b.RomaNames) + len(b.Descriptions)
}

// Text table names.
const (
	TableNames        = "character_names"
	TableRomaNames    = "character_names_roma"
	TableDescriptions = "character_descriptions"
	TableSeries       = "series_names"
)

const textDDL = `
CREATE TABLE IF NOT EXISTS character_names (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS character_names_roma (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS character_descriptions (
  id              INTEGER PRIMARY KEY,
  description     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS series_names (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL
);
`

const (
	insertNameSQL        = `INSERT INTO character_names (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`
	insertRomaNameSQL    = `INSERT INTO character_names_roma (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`
	insertDescriptionSQL = `INSERT INTO character_descriptions (id, description) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`
	insertSeriesSQL      = `INSERT INTO series_names (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`
)

// TextStore is one locale's text database. All inserts ignore duplicate ids.
type TextStore struct {
	*Store
}

// OpenTextStore opens and migrates a locale text database at path.
func OpenTextStore(path string) (*TextStore, error) {
	s, err := NewStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.migrate(textDDL); err != nil {
		s.Close()
		return nil, err
	}
	return &TextStore{Store: s}, nil
}

// WriteBatch inserts names, romanized names and descriptions in one
// transaction.
func (t *TextStore) WriteBatch(ctx context.Context, batch TextBatch) error {
	if batch.Len() == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write text batch: begin: %w", err)
	}
	defer tx.Rollback()

	if err := execBatch(ctx, tx, insertNameSQL, textRowsToArgs(batch.Names)); err != nil {
		return fmt.Errorf("write %s: %w", TableNames, err)
	}
	if err := execBatch(ctx, tx, insertRomaNameSQL, textRowsToArgs(batch.RomaNames)); err != nil {
		return fmt.Errorf("write %s: %w", TableRomaNames, err)
	}
	if err := execBatch(ctx, tx, insertDescriptionSQL, textRowsToArgs(batch.Descriptions)); err != nil {
		return fmt.Errorf("write %s: %w", TableDescriptions, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write text batch: commit: %w", err)
	}
	return nil
}

// WriteSeries inserts every series name in one transaction.
func (t *TextStore) WriteSeries(ctx context.Context, rows []TextRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write series: begin: %w", err)
	}
	defer tx.Rollback()

	if err := execBatch(ctx, tx, insertSeriesSQL, textRowsToArgs(rows)); err != nil {
		return fmt.Errorf("write %s: %w", TableSeries, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write series: commit: %w", err)
	}
	return nil
}

// Lookup returns the text stored under id in one of the text tables, and
// whether it exists.
func (t *TextStore) Lookup(ctx context.Context, table string, id int32) (string, bool, error) {
	col := "name"
	if table == TableDescriptions {
		col = "description"
	}
	var text string
	err := t.db.QueryRowContext(ctx, "SELECT "+col+" FROM "+table+" WHERE id = ?", id).Scan(&text)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup %s %d: %w", table, id, err)
	}
	return text, true, nil
}
