// Package gamedatatest builds decoded tables for tests. Rows are laid out to
// match the column positions in the gamedata schemas.
package gamedatatest

import (
	"encoding/json"

	"github.com/jward/dataminer/internal/gamedata"
)

// blank returns n zero Int cells.
func blank(n int) gamedata.Row {
	row := make(gamedata.Row, n)
	for i := range row {
		row[i] = gamedata.Int(0)
	}
	return row
}

// Base is one CHARA_BASE_INFO row.
type Base struct {
	Key      int32
	NameID   int32
	SeriesID int32
	Index    int32
}

// Row lays the fields out at their schema positions.
func (b Base) Row() gamedata.Row {
	row := blank(22)
	row[0] = gamedata.Int(b.Key)
	row[3] = gamedata.Int(b.NameID)
	row[15] = gamedata.Int(b.SeriesID)
	row[21] = gamedata.Int(b.Index)
	return row
}

// Param is one CHARA_PARAM_INFO row.
type Param struct {
	BaseKey       int32
	Element       int32
	MainPosition  int32
	AltPosition   int32
	Style         int32
	GrowthPattern int32
	Rank          int32
	DescriptionID int32
	Skills        [6]int32
	Rarity        int32
}

// FullSkills is a complete second technique path.
var FullSkills = [6]int32{1, 2, 3, 4, 5, 6}

// Row lays the fields out at their schema positions.
func (p Param) Row() gamedata.Row {
	row := blank(42)
	row[1] = gamedata.Int(p.BaseKey)
	row[2] = gamedata.Int(p.Element)
	row[3] = gamedata.Int(p.MainPosition)
	row[4] = gamedata.Int(p.AltPosition)
	row[5] = gamedata.Int(p.Style)
	row[7] = gamedata.Int(p.GrowthPattern)
	row[9] = gamedata.Int(p.Rank)
	row[11] = gamedata.Int(p.DescriptionID)
	for i, v := range p.Skills {
		row[23+i] = gamedata.Int(v)
	}
	row[41] = gamedata.Int(p.Rarity)
	return row
}

// Growth is one growth table row. Mid holds the stored (unscaled) values.
type Growth struct {
	Position uint8
	Pattern  uint8
	Rank     uint8
	Mid      [7]int32
	End      [7]int32
}

// Uniform returns seven copies of v.
func Uniform(v int32) [7]int32 {
	return [7]int32{v, v, v, v, v, v, v}
}

// Row lays the fields out at their schema positions.
func (g Growth) Row() gamedata.Row {
	row := blank(17)
	row[0] = gamedata.Byte(g.Position)
	row[1] = gamedata.Byte(g.Pattern)
	row[2] = gamedata.Byte(g.Rank)
	for i := range 7 {
		row[3+i] = gamedata.Int(g.Mid[i])
		row[10+i] = gamedata.Int(g.End[i])
	}
	return row
}

// Noun returns a NOUN_INFO row. A nonzero variant marks an alternate phrasing.
func Noun(id, variant int32, text string) gamedata.Row {
	row := blank(6)
	row[0] = gamedata.Int(id)
	row[1] = gamedata.Int(variant)
	row[5] = gamedata.String(text)
	return row
}

// Description returns a TEXT_INFO row.
func Description(id int32, text string) gamedata.Row {
	row := blank(3)
	row[0] = gamedata.Int(id)
	row[2] = gamedata.String(text)
	return row
}

// BaseTable builds CHARA_BASE_INFO from bases.
func BaseTable(bases ...Base) *gamedata.Table {
	t := &gamedata.Table{Name: gamedata.CharaBase.Table}
	for _, b := range bases {
		t.Rows = append(t.Rows, b.Row())
	}
	return t
}

// ParamTable builds CHARA_PARAM_INFO from params.
func ParamTable(params ...Param) *gamedata.Table {
	t := &gamedata.Table{Name: gamedata.CharaParam.Table}
	for _, p := range params {
		t.Rows = append(t.Rows, p.Row())
	}
	return t
}

// GrowthTable builds the growth table from rows.
func GrowthTable(rows ...Growth) *gamedata.Table {
	t := &gamedata.Table{Name: gamedata.GrowthTable.Table}
	for _, g := range rows {
		t.Rows = append(t.Rows, g.Row())
	}
	return t
}

// NounTable builds a NOUN_INFO table.
func NounTable(rows ...gamedata.Row) *gamedata.Table {
	return &gamedata.Table{Name: gamedata.NounText.Table, Rows: rows}
}

// DescriptionTable builds a TEXT_INFO table.
func DescriptionTable(rows ...gamedata.Row) *gamedata.Table {
	return &gamedata.Table{Name: gamedata.DescriptionText.Table, Rows: rows}
}

// Dump renders tables in the JSON dump format read by gamedata.JSONDecoder.
func Dump(tables ...*gamedata.Table) []byte {
	type body struct {
		Rows [][]map[string]any `json:"rows"`
	}
	doc := struct {
		Tables map[string]body `json:"tables"`
	}{Tables: make(map[string]body, len(tables))}

	for _, t := range tables {
		b := body{Rows: make([][]map[string]any, 0, len(t.Rows))}
		for _, row := range t.Rows {
			cells := make([]map[string]any, len(row))
			for i, c := range row {
				cells[i] = map[string]any{c.Kind.String(): cellValue(c)}
			}
			b.Rows = append(b.Rows, cells)
		}
		doc.Tables[t.Name] = b
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

func cellValue(c gamedata.Cell) any {
	switch c.Kind {
	case gamedata.KindInt:
		return c.I
	case gamedata.KindUInt:
		return c.U
	case gamedata.KindByte:
		return c.B
	default:
		return c.S
	}
}
