package gamedata

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/gjson"
)

// JSONDecoder reads the JSON table dumps written by the external cfg.bin
// decoder:
//
//	{"tables": {"CHARA_BASE_INFO": {"rows": [[{"int": 1}, {"string": "x"}]]}}}
//
// Each cell object carries exactly one of "int", "uint", "byte" or "string".
type JSONDecoder struct{}

// Decode implements Decoder.
func (JSONDecoder) Decode(path string) (Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table dump: %w", err)
	}
	db, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return db, nil
}

// ParseJSON parses a table dump held in memory.
func ParseJSON(data []byte) (MemDatabase, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json")
	}
	tables := gjson.GetBytes(data, "tables")
	if !tables.IsObject() {
		return nil, fmt.Errorf("missing tables object")
	}

	db := make(MemDatabase)
	var parseErr error
	tables.ForEach(func(name, body gjson.Result) bool {
		t := &Table{Name: name.String()}
		for i, rowJSON := range body.Get("rows").Array() {
			row, err := parseRow(rowJSON)
			if err != nil {
				parseErr = fmt.Errorf("table %s row %d: %w", t.Name, i, err)
				return false
			}
			t.Rows = append(t.Rows, row)
		}
		db[t.Name] = t
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return db, nil
}

func parseRow(rowJSON gjson.Result) (Row, error) {
	if !rowJSON.IsArray() {
		return nil, fmt.Errorf("row is not an array")
	}
	cells := rowJSON.Array()
	row := make(Row, 0, len(cells))
	for col, c := range cells {
		cell, err := parseCell(c)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col, err)
		}
		row = append(row, cell)
	}
	return row, nil
}

func parseCell(c gjson.Result) (Cell, error) {
	if v := c.Get("int"); v.Exists() {
		n, err := parseInteger(v, true, 32)
		if err != nil {
			return Cell{}, err
		}
		return Int(int32(n)), nil
	}
	if v := c.Get("uint"); v.Exists() {
		n, err := parseInteger(v, false, 32)
		if err != nil {
			return Cell{}, err
		}
		return UInt(uint32(n)), nil
	}
	if v := c.Get("byte"); v.Exists() {
		n, err := parseInteger(v, false, 8)
		if err != nil {
			return Cell{}, err
		}
		return Byte(uint8(n)), nil
	}
	if v := c.Get("string"); v.Exists() {
		if v.Type != gjson.String {
			return Cell{}, fmt.Errorf("%w: string cell holds %s", ErrCellType, v.Raw)
		}
		return String(v.String()), nil
	}
	return Cell{}, fmt.Errorf("%w: %s", ErrCellType, c.Raw)
}

// parseInteger reads an integral JSON number that fits in bits. Strings,
// fractions and out-of-range values are rejected rather than coerced.
func parseInteger(v gjson.Result, signed bool, bits int) (int64, error) {
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: %s is not a number", ErrCellType, v.Raw)
	}
	if signed {
		n, err := strconv.ParseInt(v.Raw, 10, bits)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not an int%d", ErrCellType, v.Raw, bits)
		}
		return n, nil
	}
	n, err := strconv.ParseUint(v.Raw, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a uint%d", ErrCellType, v.Raw, bits)
	}
	return int64(n), nil
}
