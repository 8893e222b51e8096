// Package gamedata is the boundary to the external cfg.bin decoder. A decoded
// file is a Database of named Tables; each Table is an ordered list of Rows of
// typed Cells addressed by column position.
package gamedata

import (
	"errors"
	"fmt"
)

var (
	// ErrTableNotFound is returned when a decoded file has no table of the requested name.
	ErrTableNotFound = errors.New("table not found")
	// ErrCellType is returned when a cell does not hold the kind a column requires.
	ErrCellType = errors.New("unexpected cell type")
	// ErrColumnRange is returned when a row is shorter than the requested column.
	ErrColumnRange = errors.New("column out of range")
)

// Kind identifies the value held by a Cell.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindUInt
	KindByte
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUInt:
		return "uint"
	case KindByte:
		return "byte"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Cell is a single typed value. Only the field matching Kind is meaningful.
type Cell struct {
	Kind Kind
	I    int32
	U    uint32
	B    uint8
	S    string
}

func Int(v int32) Cell { return Cell{Kind: KindInt, I: v} }
func UInt(v uint32) Cell { return Cell{Kind: KindUInt, U: v} }
func Byte(v uint8) Cell { return Cell{Kind: KindByte, B: v} }
func String(v string) Cell { return Cell{Kind: KindString, S: v} }

// Row is one decoded table row.
type Row []Cell

func (r Row) cell(col int, want Kind) (Cell, error) {
	if col < 0 || col >= len(r) {
		return Cell{}, fmt.Errorf("%w: column %d of %d", ErrColumnRange, col, len(r))
	}
	c := r[col]
	if c.Kind != want {
		return Cell{}, fmt.Errorf("%w: column %d is %s, want %s", ErrCellType, col, c.Kind, want)
	}
	return c, nil
}

// Int returns the signed integer at col.
func (r Row) Int(col int) (int32, error) {
	c, err := r.cell(col, KindInt)
	return c.I, err
}

// UInt returns the unsigned integer at col.
func (r Row) UInt(col int) (uint32, error) {
	c, err := r.cell(col, KindUInt)
	return c.U, err
}

// Byte returns the byte at col.
func (r Row) Byte(col int) (uint8, error) {
	c, err := r.cell(col, KindByte)
	return c.B, err
}

// String returns the string at col.
func (r Row) String(col int) (string, error) {
	c, err := r.cell(col, KindString)
	return c.S, err
}

// Table is a named, ordered sequence of rows.
type Table struct {
	Name string
	Rows []Row
}

// Database is one decoded file: a set of tables addressed by name.
type Database interface {
	Table(name string) (*Table, error)
}

// MemDatabase is an in-memory Database.
type MemDatabase map[string]*Table

// Table implements Database.
func (m MemDatabase) Table(name string) (*Table, error) {
	t, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// Decoder turns a decoded-file path into a Database.
type Decoder interface {
	Decode(path string) (Database, error)
}
