// Package text resolves localized character names and descriptions for the
// entities the character extractor produces, writing one text database per
// locale.
package text

import (
	"fmt"
	"log/slog"

	"github.com/jward/dataminer/internal/gamedata"
	"github.com/jward/dataminer/internal/store"
)

// Sources are the decoded localization tables of one locale.
type Sources struct {
	Names        *gamedata.Table
	RomaNames    *gamedata.Table
	Descriptions *gamedata.Table
	Series       *gamedata.Table
}

// Index is the in-memory text lookup of one locale. It is read-only once
// BuildIndex returns.
type Index struct {
	Locale       string
	Names        map[int32]string
	RomaNames    map[int32]string
	Descriptions map[int32]string

	// Series rows are written once at startup in table order, so they are
	// kept as rows rather than indexed.
	Series []store.TextRow

	// Duplicates counts ids seen more than once while indexing.
	Duplicates int
}

// BuildIndex scans the locale's tables. Name rows with a nonzero variant flag
// are alternate phrasings and are skipped. A repeated id is logged and the
// later row replaces the earlier one.
func BuildIndex(locale string, src Sources, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idx := &Index{Locale: locale}

	var err error
	if idx.Names, err = idx.indexNouns(src.Names, "names", logger); err != nil {
		return nil, err
	}
	if idx.RomaNames, err = idx.indexNouns(src.RomaNames, "roma names", logger); err != nil {
		return nil, err
	}
	if idx.Descriptions, err = idx.indexDescriptions(src.Descriptions, logger); err != nil {
		return nil, err
	}
	if idx.Series, err = seriesRows(src.Series); err != nil {
		return nil, err
	}

	logger.Debug("text index built",
		"locale", locale,
		"names", len(idx.Names),
		"roma_names", len(idx.RomaNames),
		"descriptions", len(idx.Descriptions),
		"series", len(idx.Series),
		"duplicates", idx.Duplicates,
	)
	return idx, nil
}

func (idx *Index) indexNouns(t *gamedata.Table, what string, logger *slog.Logger) (map[int32]string, error) {
	m := make(map[int32]string)
	if t == nil {
		return m, nil
	}
	for i, row := range t.Rows {
		rec := gamedata.NounText.Bind(row)
		variant, err := rec.Int(gamedata.ColVariant)
		if err != nil {
			return nil, fmt.Errorf("%s %s row %d: %w", idx.Locale, what, i, err)
		}
		if variant != 0 {
			continue
		}
		id, text, err := idText(rec)
		if err != nil {
			return nil, fmt.Errorf("%s %s row %d: %w", idx.Locale, what, i, err)
		}
		idx.put(m, id, text, what, logger)
	}
	return m, nil
}

func (idx *Index) indexDescriptions(t *gamedata.Table, logger *slog.Logger) (map[int32]string, error) {
	m := make(map[int32]string)
	if t == nil {
		return m, nil
	}
	for i, row := range t.Rows {
		id, text, err := idText(gamedata.DescriptionText.Bind(row))
		if err != nil {
			return nil, fmt.Errorf("%s descriptions row %d: %w", idx.Locale, i, err)
		}
		idx.put(m, id, text, "descriptions", logger)
	}
	return m, nil
}

func (idx *Index) put(m map[int32]string, id int32, text, what string, logger *slog.Logger) {
	if _, dup := m[id]; dup {
		idx.Duplicates++
		logger.Warn("duplicate text id", "locale", idx.Locale, "table", what, "id", id)
	}
	m[id] = text
}

func seriesRows(t *gamedata.Table) ([]store.TextRow, error) {
	if t == nil {
		return nil, nil
	}
	rows := make([]store.TextRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		id, text, err := idText(gamedata.NounText.Bind(row))
		if err != nil {
			return nil, fmt.Errorf("series row %d: %w", i, err)
		}
		rows = append(rows, store.TextRow{ID: id, Text: text})
	}
	return rows, nil
}

func idText(rec gamedata.Record) (int32, string, error) {
	id, err := rec.Int(gamedata.ColID)
	if err != nil {
		return 0, "", err
	}
	text, err := rec.String(gamedata.ColText)
	if err != nil {
		return 0, "", err
	}
	return id, text, nil
}
