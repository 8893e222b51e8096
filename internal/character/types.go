// Package character derives persisted character entities from the decoded
// base, param and growth tables.
package character

import "fmt"

// Element is a character's affinity.
type Element int32

const (
	ElementWind     Element = 1
	ElementForest   Element = 2
	ElementFire     Element = 3
	ElementMountain Element = 4
	ElementUnknown  Element = 5
)

// ElementFrom maps a raw cell value to an Element; unknown values map to ElementUnknown.
func ElementFrom(v int32) Element {
	switch e := Element(v); e {
	case ElementWind, ElementForest, ElementFire, ElementMountain:
		return e
	default:
		return ElementUnknown
	}
}

// Position is a playing role. The numeric value is also the growth-table key.
type Position uint8

const (
	PositionGK      Position = 1
	PositionFW      Position = 2
	PositionMF      Position = 3
	PositionDF      Position = 4
	PositionUnknown Position = 5
)

// PositionFrom maps a raw cell value to a Position; unknown values map to PositionUnknown.
func PositionFrom(v int32) Position {
	switch v {
	case 1, 2, 3, 4:
		return Position(v)
	default:
		return PositionUnknown
	}
}

func (p Position) String() string {
	switch p {
	case PositionGK:
		return "GK"
	case PositionFW:
		return "FW"
	case PositionMF:
		return "MF"
	case PositionDF:
		return "DF"
	default:
		return "UNKNOWN"
	}
}

// Style is a playstyle.
type Style int32

const (
	StyleBreach  Style = 0
	StyleCounter Style = 1
	StyleBond    Style = 2
	StyleTension Style = 3
	StyleRough   Style = 4
	StyleJustice Style = 5
	StyleUnknown Style = 6
)

// StyleFrom maps a raw cell value to a Style; unknown values map to StyleUnknown.
func StyleFrom(v int32) Style {
	if v >= int32(StyleBreach) && v <= int32(StyleJustice) {
		return Style(v)
	}
	return StyleUnknown
}

// Stats is a block of seven stat magnitudes.
type Stats struct {
	Kick         uint16
	Control      uint16
	Technique    uint16
	Pressure     uint16
	Physical     uint16
	Agility      uint16
	Intelligence uint16
}

// Values returns the fields in column order.
func (s Stats) Values() [7]uint16 {
	return [7]uint16{s.Kick, s.Control, s.Technique, s.Pressure, s.Physical, s.Agility, s.Intelligence}
}

// GrowthKey selects a row of the growth table.
type GrowthKey struct {
	Position Position
	Pattern  uint8
	Rank     uint8
}

func (k GrowthKey) String() string {
	return fmt.Sprintf("(%s, pattern %d, rank %d)", k.Position, k.Pattern, k.Rank)
}

// StatPair holds the level 50 (mid) and level 99 (end) stat blocks.
type StatPair struct {
	Mid Stats
	End Stats
}

// Bucket is the output table a character is routed to.
type Bucket int

const (
	BucketCommon Bucket = iota
	BucketPromoted
	BucketTopTier
)

// Buckets lists every bucket in flush order.
var Buckets = []Bucket{BucketCommon, BucketPromoted, BucketTopTier}

func (b Bucket) String() string {
	switch b {
	case BucketCommon:
		return "common"
	case BucketPromoted:
		return "promoted"
	case BucketTopTier:
		return "top-tier"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// Entity is one persisted character row.
type Entity struct {
	Index        int32
	NameID       int32
	SeriesID     int32
	Element      Element
	MainPosition Position
	AltPosition  Position
	Style        Style
	Mid          Stats
	End          Stats
	Bucket       Bucket
}

// NameRequest asks the text side to resolve a character's name and description.
type NameRequest struct {
	NameID        int32
	DescriptionID int32
}
