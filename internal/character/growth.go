package character

import (
	"fmt"
	"math"

	"github.com/jward/dataminer/internal/gamedata"
)

// Mid-level stats are stored in the growth table at 1/1.4 of their in-game
// value. The multiplier is applied in fixed point with truncation.
const (
	midScaleNum = 14
	midScaleDen = 10
)

// GrowthTable maps a GrowthKey to its derived stat pair. Built once, read-only after.
type GrowthTable map[GrowthKey]StatPair

// Lookup returns the stat pair for key.
func (g GrowthTable) Lookup(key GrowthKey) (StatPair, bool) {
	p, ok := g[key]
	return p, ok
}

// ParseGrowthTable builds a GrowthTable from the growth table rows. A later
// row with the same key replaces an earlier one.
func ParseGrowthTable(t *gamedata.Table) (GrowthTable, error) {
	g := make(GrowthTable, len(t.Rows))
	for i, row := range t.Rows {
		rec := gamedata.GrowthTable.Bind(row)

		key, err := growthKey(rec)
		if err != nil {
			return nil, fmt.Errorf("growth row %d: %w", i, err)
		}
		mid, err := readStats(rec, "mid_")
		if err != nil {
			return nil, fmt.Errorf("growth row %d: %w", i, err)
		}
		end, err := readStats(rec, "end_")
		if err != nil {
			return nil, fmt.Errorf("growth row %d: %w", i, err)
		}

		g[key] = StatPair{Mid: scaleMid(mid), End: end}
	}
	return g, nil
}

func growthKey(rec gamedata.Record) (GrowthKey, error) {
	pos, err := rec.Byte("position")
	if err != nil {
		return GrowthKey{}, err
	}
	pattern, err := rec.Byte("growth_pattern")
	if err != nil {
		return GrowthKey{}, err
	}
	rank, err := rec.Byte("rank")
	if err != nil {
		return GrowthKey{}, err
	}
	return GrowthKey{Position: Position(pos), Pattern: pattern, Rank: rank}, nil
}

func readStats(rec gamedata.Record, prefix string) (Stats, error) {
	names := make([]string, len(gamedata.StatColumns))
	for i, stat := range gamedata.StatColumns {
		names[i] = prefix + stat
	}
	v, err := rec.Ints(names...)
	if err != nil {
		return Stats{}, err
	}
	for i, x := range v {
		if x < 0 || x > math.MaxUint16 {
			return Stats{}, fmt.Errorf("%w: %s = %d is outside the stat range", gamedata.ErrCellType, names[i], x)
		}
	}
	return Stats{
		Kick:         uint16(v[0]),
		Control:      uint16(v[1]),
		Technique:    uint16(v[2]),
		Pressure:     uint16(v[3]),
		Physical:     uint16(v[4]),
		Agility:      uint16(v[5]),
		Intelligence: uint16(v[6]),
	}, nil
}

// ScaleMid applies the mid-level multiplier to a single magnitude. Results
// above the uint16 range saturate at math.MaxUint16.
func ScaleMid(v uint16) uint16 {
	return uint16(min(uint32(v)*midScaleNum/midScaleDen, math.MaxUint16))
}

func scaleMid(s Stats) Stats {
	return Stats{
		Kick:         ScaleMid(s.Kick),
		Control:      ScaleMid(s.Control),
		Technique:    ScaleMid(s.Technique),
		Pressure:     ScaleMid(s.Pressure),
		Physical:     ScaleMid(s.Physical),
		Agility:      ScaleMid(s.Agility),
		Intelligence: ScaleMid(s.Intelligence),
	}
}
