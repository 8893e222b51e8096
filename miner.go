package dataminer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jward/dataminer/internal/character"
	"github.com/jward/dataminer/internal/config"
	"github.com/jward/dataminer/internal/files"
	"github.com/jward/dataminer/internal/gamedata"
	"github.com/jward/dataminer/internal/logging"
	"github.com/jward/dataminer/internal/store"
	"github.com/jward/dataminer/internal/text"
)

// Metadata keys written to every output database.
const (
	MetaRunID      = "run_id"
	MetaStartedAt  = "started_at"
	MetaFinishedAt = "finished_at"
	MetaEntities   = "entities"
)

// Miner runs the character and text pipeline for one configuration.
type Miner struct {
	cfg     *config.Config
	decoder gamedata.Decoder
	logger  *slog.Logger
	fresh   bool
	now     func() time.Time
}

// Option configures a Miner.
type Option func(*Miner)

// WithDecoder replaces the default JSON table-dump decoder.
func WithDecoder(d gamedata.Decoder) Option {
	return func(m *Miner) {
		m.decoder = d
	}
}

// WithLogger sets the Miner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Miner) {
		m.logger = l
	}
}

// WithFresh makes Run remove the output folder before mining.
func WithFresh(fresh bool) Option {
	return func(m *Miner) {
		m.fresh = fresh
	}
}

// New creates a Miner. cfg must already be validated.
func New(cfg *config.Config, opts ...Option) *Miner {
	m := &Miner{
		cfg:     cfg,
		decoder: gamedata.JSONDecoder{},
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Summary reports one mining run.
type Summary struct {
	RunID string `json:"run_id"`

	// Entities maps bucket name to entities persisted this run.
	Entities map[string]int `json:"entities"`
	Rejected int            `json:"rejected"`
	Ignored  int            `json:"ignored_base_rows"`
	Requests int            `json:"name_requests"`

	// Missing maps locale to requested names it lacked.
	Missing      map[string]int `json:"missing_names"`
	TotalMissing int            `json:"total_missing_names"`

	Duration time.Duration `json:"duration"`
}

// Run prepares the output folder, locates and decodes the required table
// dumps, then mines them.
func (m *Miner) Run(ctx context.Context) (*Summary, error) {
	if err := files.PrepareOutput(m.cfg.Datamining.OutputFolder, config.TextDBDir, m.fresh); err != nil {
		return nil, err
	}

	layout, err := Discover(m.cfg)
	var missing *files.MissingError
	if errors.As(err, &missing) {
		for _, rule := range missing.Rules {
			m.logger.Error("required file not found", "rule", rule)
		}
	}
	if err != nil {
		return nil, err
	}
	m.logger.Debug("required files located", "character_files", len(layout.Character), "locales", len(layout.Text))

	src, err := Load(ctx, m.decoder, layout)
	if err != nil {
		return nil, err
	}
	return m.Mine(ctx, src)
}

// Mine runs the extractor and the text resolver concurrently over src. The
// extractor sends one NameRequest per producing base row on a bounded
// channel and closes it when done; the resolver drains it until closed.
// The first error from either side cancels the other.
func (m *Miner) Mine(ctx context.Context, src *Sources) (*Summary, error) {
	start := m.now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx, m.logger)

	growth, err := character.ParseGrowthTable(src.Growth)
	if err != nil {
		return nil, fmt.Errorf("parse growth table: %w", err)
	}

	chars, err := store.OpenCharacterStore(m.cfg.CharacterDBPath())
	if err != nil {
		return nil, fmt.Errorf("open character store: %w", err)
	}
	defer chars.Close()

	writers, closeText, err := m.openLocaleWriters(src, logger)
	if err != nil {
		return nil, err
	}
	defer closeText()

	stamped := []*store.Store{chars.Store}
	for _, w := range writers {
		stamped = append(stamped, w.store)
	}
	if err := stampAll(ctx, stamped, MetaRunID, runID); err != nil {
		return nil, err
	}
	if err := stampAll(ctx, stamped, MetaStartedAt, start.UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	localeWriters := make([]*text.LocaleWriter, len(writers))
	for i, w := range writers {
		localeWriters[i] = w.writer
	}

	reqs := make(chan character.NameRequest, m.cfg.Datamining.RequestBuffer)
	extractor := character.NewExtractor(growth, chars, reqs,
		character.WithBatchSize(m.cfg.Datamining.BatchSize),
		character.WithLogger(logger),
	)
	resolver := text.NewResolver(localeWriters,
		text.WithBatchSize(m.cfg.Datamining.BatchSize),
		text.WithLogger(logger),
	)

	var (
		charRep character.Report
		textRep text.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(reqs)
		var err error
		charRep, err = extractor.Run(gctx, src.Base, src.Param)
		if err != nil {
			return fmt.Errorf("extract characters: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := resolver.Start(gctx); err != nil {
			return err
		}
		var err error
		textRep, err = resolver.Run(gctx, reqs)
		if err != nil {
			return fmt.Errorf("resolve text: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("mining aborted", "err", err)
		return nil, err
	}

	sum := &Summary{
		RunID:        runID,
		Entities:     make(map[string]int, len(character.Buckets)),
		Rejected:     charRep.Rejected,
		Ignored:      charRep.Ignored,
		Requests:     charRep.Requests,
		Missing:      textRep.Missing,
		TotalMissing: textRep.TotalMissing,
		Duration:     m.now().Sub(start),
	}
	total := 0
	for _, b := range character.Buckets {
		sum.Entities[b.String()] = charRep.Entities[b]
		total += charRep.Entities[b]
	}

	if err := chars.SetMetadata(ctx, MetaEntities, strconv.Itoa(total)); err != nil {
		return nil, err
	}
	if err := stampAll(ctx, stamped, MetaFinishedAt, m.now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	logger.Info("mining finished",
		"entities", total,
		"ignored_base_rows", sum.Ignored,
		"missing_names", sum.TotalMissing,
		"duration", sum.Duration,
	)
	return sum, nil
}

type localeWriter struct {
	store  *store.Store
	writer *text.LocaleWriter
}

// openLocaleWriters builds each configured locale's index and opens its
// store. The returned func closes every opened store.
func (m *Miner) openLocaleWriters(src *Sources, logger *slog.Logger) ([]localeWriter, func(), error) {
	var opened []*store.TextStore
	closeAll := func() {
		for _, s := range opened {
			s.Close()
		}
	}

	writers := make([]localeWriter, 0, len(m.cfg.Text.Locales))
	for _, locale := range m.cfg.Text.Locales {
		ts, ok := src.Text[locale]
		if !ok {
			closeAll()
			return nil, nil, fmt.Errorf("no text sources for locale %s", locale)
		}
		idx, err := text.BuildIndex(locale, ts, logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("index %s text: %w", locale, err)
		}
		st, err := store.OpenTextStore(m.cfg.TextDBPath(locale))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open %s text store: %w", locale, err)
		}
		opened = append(opened, st)
		writers = append(writers, localeWriter{store: st.Store, writer: text.NewLocaleWriter(st, idx)})
	}
	return writers, closeAll, nil
}

func stampAll(ctx context.Context, stores []*store.Store, key, value string) error {
	for _, s := range stores {
		if err := s.SetMetadata(ctx, key, value); err != nil {
			return fmt.Errorf("%s: %w", s.Path(), err)
		}
	}
	return nil
}
