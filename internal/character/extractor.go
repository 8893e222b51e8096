package character

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jward/dataminer/internal/gamedata"
)

var (
	// ErrGrowthMiss means a param row names a position/pattern/rank that the
	// growth table does not contain. The source tables are inconsistent.
	ErrGrowthMiss = errors.New("no growth table entry")
	// ErrUnknownTier means a rarity value outside every known bucket.
	ErrUnknownTier = errors.New("unknown rarity tier")
)

// DefaultBatchSize is the number of entities per bucket flush.
const DefaultBatchSize = 1000

// Sink persists one batch of entities for a bucket.
type Sink interface {
	Flush(ctx context.Context, bucket Bucket, entities []Entity) error
}

// Report summarises one extraction run.
type Report struct {
	Entities map[Bucket]int

	// Rejected counts param matches dropped for an incomplete technique path.
	Rejected int

	// Ignored counts eligible base rows that produced no entity.
	Ignored int

	Requests int
	Flushes  int
}

// Classify routes a rarity tier to its bucket.
func Classify(tier int32) (Bucket, error) {
	switch {
	case tier == 0:
		return BucketCommon, nil
	case tier >= 5 && tier < 8:
		return BucketPromoted, nil
	case tier == 8:
		return BucketTopTier, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
}

// requiresSkillPath reports whether a tier must carry a complete second
// technique path. Tiers 5-7 are exempt.
func requiresSkillPath(tier int32) bool {
	return tier == 0 || tier == 8
}

// Extractor joins base and param rows into entities, hands full batches to a
// Sink and emits one NameRequest per base row that produced an entity.
type Extractor struct {
	growth    GrowthTable
	sink      Sink
	requests  chan<- NameRequest
	batchSize int
	logger    *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) ExtractorOption {
	return func(x *Extractor) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

// WithLogger sets the extractor's logger.
func WithLogger(l *slog.Logger) ExtractorOption {
	return func(x *Extractor) {
		x.logger = l
	}
}

// NewExtractor creates an Extractor. The caller owns requests and closes it
// once Run returns.
func NewExtractor(growth GrowthTable, sink Sink, requests chan<- NameRequest, opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		growth:    growth,
		sink:      sink,
		requests:  requests,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

type baseRecord struct {
	index    int32
	key      int32
	nameID   int32
	seriesID int32
}

// Run processes every eligible base row in index order. Any error aborts the
// run; batches already flushed stay committed, pending ones are dropped.
func (x *Extractor) Run(ctx context.Context, base, param *gamedata.Table) (Report, error) {
	rep := Report{Entities: make(map[Bucket]int, len(Buckets))}

	bases, err := eligibleBases(base)
	if err != nil {
		return rep, err
	}

	pending := make(map[Bucket][]Entity, len(Buckets))
	flush := func(b Bucket) error {
		batch := pending[b]
		if len(batch) == 0 {
			return nil
		}
		if err := x.sink.Flush(ctx, b, batch); err != nil {
			return fmt.Errorf("flush %s batch: %w", b, err)
		}
		x.logger.Debug("flushed batch", "bucket", b.String(), "entities", len(batch))
		rep.Flushes++
		pending[b] = nil
		return nil
	}

	for _, br := range bases {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		produced := 0
		for i, row := range param.Rows {
			rec := gamedata.CharaParam.Bind(row)
			fk, err := rec.Int("base_key")
			if err != nil {
				return rep, fmt.Errorf("param row %d: %w", i, err)
			}
			if fk != br.key {
				continue
			}

			ent, descID, ok, err := x.candidate(rec, br)
			if err != nil {
				return rep, fmt.Errorf("param row %d for index %d: %w", i, br.index, err)
			}
			if !ok {
				rep.Rejected++
				continue
			}

			if produced == 0 {
				if err := x.send(ctx, NameRequest{NameID: br.nameID, DescriptionID: descID}); err != nil {
					return rep, err
				}
				rep.Requests++
			}
			produced++

			pending[ent.Bucket] = append(pending[ent.Bucket], ent)
			rep.Entities[ent.Bucket]++
			if len(pending[ent.Bucket]) >= x.batchSize {
				if err := flush(ent.Bucket); err != nil {
					return rep, err
				}
			}
		}

		if produced == 0 {
			rep.Ignored++
		}
	}

	for _, b := range Buckets {
		if err := flush(b); err != nil {
			return rep, err
		}
	}

	x.logger.Info("character extraction finished",
		"common", rep.Entities[BucketCommon],
		"promoted", rep.Entities[BucketPromoted],
		"top_tier", rep.Entities[BucketTopTier],
		"rejected", rep.Rejected,
		"ignored_base_rows", rep.Ignored,
	)
	return rep, nil
}

func (x *Extractor) send(ctx context.Context, req NameRequest) error {
	select {
	case x.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// candidate builds the entity for one matched param row. ok is false when the
// row is rejected by the technique path check.
func (x *Extractor) candidate(rec gamedata.Record, br baseRecord) (ent Entity, descID int32, ok bool, err error) {
	tier, err := rec.Int("rarity")
	if err != nil {
		return Entity{}, 0, false, err
	}
	slots, err := rec.Ints(gamedata.SkillSlotColumns...)
	if err != nil {
		return Entity{}, 0, false, err
	}
	if requiresSkillPath(tier) && slices.Contains(slots, 0) {
		return Entity{}, 0, false, nil
	}

	bucket, err := Classify(tier)
	if err != nil {
		return Entity{}, 0, false, err
	}

	attrs, err := rec.Ints("element", "main_position", "alt_position", "style", "description_id")
	if err != nil {
		return Entity{}, 0, false, err
	}
	pattern, err := rec.Int("growth_pattern")
	if err != nil {
		return Entity{}, 0, false, err
	}
	rank, err := rec.Int("rank")
	if err != nil {
		return Entity{}, 0, false, err
	}

	ent = Entity{
		Index:        br.index,
		NameID:       br.nameID,
		SeriesID:     br.seriesID,
		Element:      ElementFrom(attrs[0]),
		MainPosition: PositionFrom(attrs[1]),
		AltPosition:  PositionFrom(attrs[2]),
		Style:        StyleFrom(attrs[3]),
		Bucket:       bucket,
	}

	if ent.MainPosition != PositionUnknown {
		key := GrowthKey{Position: ent.MainPosition, Pattern: uint8(pattern), Rank: uint8(rank)}
		pair, found := x.growth.Lookup(key)
		if !found {
			return Entity{}, 0, false, fmt.Errorf("%w for %s", ErrGrowthMiss, key)
		}
		ent.Mid, ent.End = pair.Mid, pair.End
	}

	return ent, attrs[4], true, nil
}

// eligibleBases returns the base rows with a positive index, sorted by index.
func eligibleBases(t *gamedata.Table) ([]baseRecord, error) {
	var out []baseRecord
	for i, row := range t.Rows {
		rec := gamedata.CharaBase.Bind(row)
		index, err := rec.Int("index")
		if err != nil {
			return nil, fmt.Errorf("base row %d: %w", i, err)
		}
		if index <= 0 {
			continue
		}
		v, err := rec.Ints("key", "name_id", "series_id")
		if err != nil {
			return nil, fmt.Errorf("base row %d: %w", i, err)
		}
		out = append(out, baseRecord{index: index, key: v[0], nameID: v[1], seriesID: v[2]})
	}
	slices.SortStableFunc(out, func(a, b baseRecord) int {
		return cmp.Compare(a.index, b.index)
	})
	return out, nil
}
