package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/events"
	"github.com/poiesic/worldsignal/sources"
	"github.com/poiesic/worldsignal/storage"
)

// DefaultCollection is the vector collection articles are indexed into.
const DefaultCollection = core.DefaultCollection

// Pipeline ingests articles from sources into the article store and vector index.
// A Pipeline may run repeatedly; concurrent runs are safe because URL
// uniqueness is enforced by the article store.
type Pipeline struct {
	articles   storage.ArticleStore
	index      storage.VectorIndex
	embedder   ai.Embedder
	chunker    *chunk.Chunker
	pool       *ants.Pool
	publisher  events.Publisher
	collection string
	now        func() time.Time
	logger     *slog.Logger

	proc *articleProcessor
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets how many sources are fetched and processed at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithPublisher sets where ingestion events go. Default discards them.
func WithPublisher(publisher events.Publisher) Option {
	return func(p *Pipeline) error {
		if publisher == nil {
			publisher = events.Noop{}
		}
		p.publisher = publisher
		return nil
	}
}

// WithCollection sets the vector collection. Default is DefaultCollection.
func WithCollection(name string) Option {
	return func(p *Pipeline) error {
		if name == "" {
			return errors.New("collection name must not be empty")
		}
		p.collection = name
		return nil
	}
}

// WithClock overrides the clock used for event timestamps and reports.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	articles storage.ArticleStore,
	index storage.VectorIndex,
	embedder ai.Embedder,
	chunker *chunk.Chunker,
	opts ...Option,
) (*Pipeline, error) {
	if articles == nil {
		return nil, ErrArticleStoreRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		articles:   articles,
		index:      index,
		embedder:   embedder,
		chunker:    chunker,
		pool:       pool,
		publisher:  events.Noop{},
		collection: DefaultCollection,
		now:        time.Now,
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Create the processor after options are applied so it gets the final config
	p.proc = &articleProcessor{
		articles:   p.articles,
		index:      p.index,
		embedder:   p.embedder,
		chunker:    p.chunker,
		publisher:  p.publisher,
		collection: p.collection,
		now:        p.now,
		logger:     p.logger.With("processor", "articles"),
	}
	return p, nil
}

// Collection returns the vector collection the pipeline writes to.
func (p *Pipeline) Collection() string {
	return p.collection
}

// Run ingests every source once. Sources are processed concurrently and
// independently; a source that cannot be fetched and an article that fails
// are recorded in the report and skipped. Run returns an error only when ctx
// is cancelled or a configuration error makes further indexing pointless,
// and the partial report is returned alongside it.
func (p *Pipeline) Run(ctx context.Context, srcs []sources.Source) (*Report, error) {
	report := &Report{
		Sources: make([]SourceReport, len(srcs)),
		Started: p.now(),
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for i, src := range srcs {
		report.Sources[i] = SourceReport{Source: src.Name(), Category: src.Category()}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.runSource(runCtx, src, &report.Sources[i]); err != nil {
				cancel(err)
			}
		})
		if err != nil {
			wg.Done()
			cancel(err)
			break
		}
	}
	wg.Wait()

	report.Finished = p.now()
	totals := report.Totals()
	p.logger.Info("ingestion finished",
		"sources", len(srcs),
		"failed_sources", len(report.FailedSources()),
		"stored", totals.Stored,
		"indexed", totals.Indexed,
		"chunks", totals.Chunks,
		"duplicates", totals.Duplicates,
		"failed", totals.Failed,
		"elapsed", totals.Duration)

	if err := context.Cause(runCtx); err != nil {
		return report, err
	}
	return report, nil
}

// runSource fetches one source and processes its articles in order. The
// returned error is fatal to the whole run.
func (p *Pipeline) runSource(ctx context.Context, src sources.Source, sr *SourceReport) error {
	start := p.now()
	defer func() { sr.Duration = p.now().Sub(start) }()

	logger := p.logger.With("source", src.Name())

	candidates, err := src.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		sr.FetchErr = err
		logger.Warn("skipping source, fetch failed", "err", err)
		return nil
	}
	sr.Fetched = len(candidates)
	logger.Debug("fetched source", "candidates", len(candidates))

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return nil
		}

		res, err := p.proc.process(ctx, src.Name(), src.Category(), candidate)
		if res.article != nil {
			sr.Stored++
		}
		if err != nil {
			if isFatal(err) {
				logger.Error("aborting ingestion", "err", err)
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			sr.Failed++
			logger.Warn("skipping article", "url", candidate.URL, "err", err)
			continue
		}

		switch res.outcome {
		case outcomeIndexed:
			sr.Indexed++
			sr.Chunks += res.chunks
		case outcomeDuplicate:
			sr.Duplicates++
		case outcomeEmpty:
			sr.Empty++
		case outcomeInvalid:
			sr.Invalid++
		}
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
