package gamedata

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a Record is asked for a column its schema does not define.
var ErrUnknownColumn = errors.New("unknown column")

// Schema names the columns of one decoded table. Decoded rows are not
// self-describing, so the positions here are the contract with the upstream
// file layout; a layout change should only touch this file.
type Schema struct {
	Table   string
	Columns map[string]int
}

// Bind wraps row so its cells can be addressed by column name.
func (s *Schema) Bind(row Row) Record {
	return Record{schema: s, row: row}
}

// Open fetches the schema's table from db.
func (s *Schema) Open(db Database) (*Table, error) {
	return db.Table(s.Table)
}

// Record is a row addressed through a Schema.
type Record struct {
	schema *Schema
	row    Row
}

func (r Record) col(name string) (int, error) {
	col, ok := r.schema.Columns[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, r.schema.Table, name)
	}
	return col, nil
}

// Int returns the signed integer in the named column.
func (r Record) Int(name string) (int32, error) {
	col, err := r.col(name)
	if err != nil {
		return 0, err
	}
	v, err := r.row.Int(col)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", r.schema.Table, name, err)
	}
	return v, nil
}

// Byte returns the byte in the named column.
func (r Record) Byte(name string) (uint8, error) {
	col, err := r.col(name)
	if err != nil {
		return 0, err
	}
	v, err := r.row.Byte(col)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", r.schema.Table, name, err)
	}
	return v, nil
}

// String returns the string in the named column.
func (r Record) String(name string) (string, error) {
	col, err := r.col(name)
	if err != nil {
		return "", err
	}
	v, err := r.row.String(col)
	if err != nil {
		return "", fmt.Errorf("%s.%s: %w", r.schema.Table, name, err)
	}
	return v, nil
}

// Ints returns the signed integers in the named columns, in order.
func (r Record) Ints(names ...string) ([]int32, error) {
	out := make([]int32, len(names))
	for i, name := range names {
		v, err := r.Int(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Column names shared by several schemas.
const (
	ColID      = "id"
	ColVariant = "variant"
	ColText    = "text"
)

// SkillSlotColumns are the six CharaParam ability slots that make up the
// second technique path.
var SkillSlotColumns = []string{"skill_1", "skill_2", "skill_3", "skill_4", "skill_5", "skill_6"}

// StatColumns are the seven stat fields in growth-table order.
var StatColumns = []string{"kick", "control", "technique", "pressure", "physical", "agility", "intelligence"}

// CharaBase is the base character table.
var CharaBase = &Schema{
	Table: "CHARA_BASE_INFO",
	Columns: map[string]int{
		"key":       0,
		"name_id":   3,
		"series_id": 15,
		"index":     21,
	},
}

// CharaParam is the character variant table.
var CharaParam = &Schema{
	Table: "CHARA_PARAM_INFO",
	Columns: map[string]int{
		"base_key":       1,
		"element":        2,
		"main_position":  3,
		"alt_position":   4,
		"style":          5,
		"growth_pattern": 7,
		"rank":           9,
		"description_id": 11,
		"skill_1":        23,
		"skill_2":        24,
		"skill_3":        25,
		"skill_4":        26,
		"skill_5":        27,
		"skill_6":        28,
		"rarity":         41,
	},
}

// GrowthTable is the per (position, pattern, rank) stat table. Columns are
// prefixed mid_ and end_ followed by a StatColumns name.
var GrowthTable = &Schema{
	Table:   "m_growthTableMainList",
	Columns: growthColumns(),
}

func growthColumns() map[string]int {
	cols := map[string]int{
		"position":       0,
		"growth_pattern": 1,
		"rank":           2,
	}
	for i, stat := range StatColumns {
		cols["mid_"+stat] = 3 + i
		cols["end_"+stat] = 3 + len(StatColumns) + i
	}
	return cols
}

// NounText holds character names, transliterated names and series names.
var NounText = &Schema{
	Table: "NOUN_INFO",
	Columns: map[string]int{
		ColID:      0,
		ColVariant: 1,
		ColText:    5,
	},
}

// DescriptionText holds character descriptions.
var DescriptionText = &Schema{
	Table: "TEXT_INFO",
	Columns: map[string]int{
		ColID:   0,
		ColText: 2,
	},
}
