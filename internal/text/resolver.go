package text

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jward/dataminer/internal/character"
	"github.com/jward/dataminer/internal/store"
)

// DefaultBatchSize is the number of requests buffered before a write pass.
const DefaultBatchSize = 1000

// LocaleWriter owns one locale's text store and index. A writer is only ever
// driven by one goroutine at a time.
type LocaleWriter struct {
	store   *store.TextStore
	index   *Index
	missing int
}

// NewLocaleWriter takes ownership of st. The writer does not close it.
func NewLocaleWriter(st *store.TextStore, idx *Index) *LocaleWriter {
	return &LocaleWriter{store: st, index: idx}
}

// Locale returns the writer's locale.
func (w *LocaleWriter) Locale() string { return w.index.Locale }

// Missing returns the number of requested names absent from the index.
func (w *LocaleWriter) Missing() int { return w.missing }

// WriteSeries writes every series name in one transaction.
func (w *LocaleWriter) WriteSeries(ctx context.Context) error {
	if err := w.store.WriteSeries(ctx, w.index.Series); err != nil {
		return fmt.Errorf("%s: %w", w.Locale(), err)
	}
	return nil
}

// Write resolves reqs against the index and writes what it finds in one
// transaction. A missing primary name is counted; missing romanized names
// and descriptions are skipped.
func (w *LocaleWriter) Write(ctx context.Context, reqs []character.NameRequest) error {
	var batch store.TextBatch
	for _, r := range reqs {
		if name, ok := w.index.Names[r.NameID]; ok {
			batch.Names = append(batch.Names, store.TextRow{ID: r.NameID, Text: name})
		} else {
			w.missing++
		}
		if roma, ok := w.index.RomaNames[r.NameID]; ok {
			batch.RomaNames = append(batch.RomaNames, store.TextRow{ID: r.NameID, Text: roma})
		}
		if desc, ok := w.index.Descriptions[r.DescriptionID]; ok {
			batch.Descriptions = append(batch.Descriptions, store.TextRow{ID: r.DescriptionID, Text: desc})
		}
	}
	if err := w.store.WriteBatch(ctx, batch); err != nil {
		return fmt.Errorf("%s: %w", w.Locale(), err)
	}
	return nil
}

// Report summarises one resolver run.
type Report struct {
	// Missing maps locale to the number of requested names it lacked.
	Missing      map[string]int
	TotalMissing int
	Requests     int
	Flushes      int
}

// Locales returns the report's locales in sorted order.
func (r Report) Locales() []string {
	out := make([]string, 0, len(r.Missing))
	for l := range r.Missing {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Resolver drains NameRequests and fans each buffered batch out to every
// locale writer in parallel.
type Resolver struct {
	writers   []*LocaleWriter
	batchSize int
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a Resolver over writers.
func NewResolver(writers []*LocaleWriter, opts ...Option) *Resolver {
	r := &Resolver{
		writers:   writers,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start writes every locale's series names, one transaction per locale, in
// parallel.
func (r *Resolver) Start(ctx context.Context) error {
	var g errgroup.Group
	for _, w := range r.writers {
		g.Go(func() error {
			return w.WriteSeries(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("write series: %w", err)
	}
	return nil
}

// Run consumes reqs until the channel is closed, flushing every batchSize
// requests and once more for the remainder. Cancelling ctx stops it early.
func (r *Resolver) Run(ctx context.Context, reqs <-chan character.NameRequest) (Report, error) {
	rep := Report{Missing: make(map[string]int, len(r.writers))}
	buf := make([]character.NameRequest, 0, r.batchSize)

	for {
		select {
		case <-ctx.Done():
			return r.finish(rep), ctx.Err()
		case req, ok := <-reqs:
			if !ok {
				if len(buf) > 0 {
					if err := r.flush(ctx, buf); err != nil {
						return r.finish(rep), err
					}
					rep.Flushes++
				}
				rep = r.finish(rep)
				r.logger.Info("text resolution finished",
					"requests", rep.Requests,
					"missing_names", rep.TotalMissing,
				)
				return rep, nil
			}
			rep.Requests++
			buf = append(buf, req)
			if len(buf) >= r.batchSize {
				if err := r.flush(ctx, buf); err != nil {
					return r.finish(rep), err
				}
				rep.Flushes++
				buf = buf[:0]
			}
		}
	}
}

// flush runs one write pass per locale in parallel. A failing locale does
// not cancel the others; the first error is returned.
func (r *Resolver) flush(ctx context.Context, buf []character.NameRequest) error {
	var g errgroup.Group
	for _, w := range r.writers {
		g.Go(func() error {
			return w.Write(ctx, buf)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("text flush: %w", err)
	}
	r.logger.Debug("flushed text batch", "requests", len(buf), "locales", len(r.writers))
	return nil
}

func (r *Resolver) finish(rep Report) Report {
	rep.TotalMissing = 0
	for _, w := range r.writers {
		rep.Missing[w.Locale()] = w.Missing()
		rep.TotalMissing += w.Missing()
	}
	return rep
}
