package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/worldsignal"
	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/answer"
	"github.com/poiesic/worldsignal/config"
	"github.com/poiesic/worldsignal/ingestion"
	"github.com/poiesic/worldsignal/reindex"
	"github.com/poiesic/worldsignal/sources"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the config file, if any, and applies every flag that was
// set on the command line or through its environment variable.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	setString("data-dir", &cfg.DataDir)
	setString("db", &cfg.Store.Path)
	setString("vector-backend", &cfg.Vector.Backend)
	setString("qdrant-host", &cfg.Vector.QdrantHost)
	setInt("qdrant-port", &cfg.Vector.QdrantPort)
	setString("collection", &cfg.Vector.Collection)
	if c.IsSet("recreate") {
		cfg.Vector.Recreate = c.Bool("recreate")
	}
	setInt("vector-size", &cfg.AI.Dimension)
	setString("embedding-backend", &cfg.AI.EmbeddingBackend)
	setString("embedding-host", &cfg.AI.EmbeddingHost)
	setString("embedding-model", &cfg.AI.EmbeddingModel)
	setString("generation-backend", &cfg.AI.GenerationBackend)
	setString("generation-host", &cfg.AI.GenerationHost)
	setString("generation-model", &cfg.AI.GenerationModel)
	setInt("chunk-size", &cfg.Chunk.Size)
	setInt("chunk-overlap", &cfg.Chunk.Overlap)
	setString("newsapi-key", &cfg.Credentials.NewsAPI)
	setString("guardian-key", &cfg.Credentials.Guardian)
	setString("nyt-key", &cfg.Credentials.NYT)
	setString("finnhub-key", &cfg.Credentials.Finnhub)
	setString("sources", &cfg.SourcesFile)
	setString("kafka-topic", &cfg.Kafka.Topic)
	if c.IsSet("kafka-brokers") {
		cfg.Kafka.Brokers = splitList(c.StringSlice("kafka-brokers"))
	}

	// Each key goes to whichever services use its backend.
	applyKey := func(name, backend string) {
		if !c.IsSet(name) {
			return
		}
		if strings.EqualFold(cfg.AI.EmbeddingBackend, backend) {
			cfg.AI.EmbeddingAPIKey = c.String(name)
		}
		if strings.EqualFold(cfg.AI.GenerationBackend, backend) {
			cfg.AI.GenerationAPIKey = c.String(name)
		}
	}
	applyKey("openai-api-key", ai.BackendOpenAI)
	applyKey("gemini-api-key", ai.BackendGemini)

	setString("addr", &cfg.Server.Addr)
	if c.IsSet("rate-limit") {
		cfg.Server.RateLimit = c.Float64("rate-limit")
	}

	return cfg, cfg.Validate()
}

// splitList accepts both repeated flags and comma separated env values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func openSystem(c *cli.Context) (*worldsignal.System, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	sys, err := worldsignal.Open(c.Context, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return sys, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	srv, err := sys.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Listening on %s\n", sys.Config().Server.Addr)
	return srv.ListenAndServe(ctx)
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	srcs, err := sys.Sources()
	if err != nil {
		return fmt.Errorf("failed to build sources: %w", err)
	}
	srcs = filterSources(srcs, c.String("category"))
	if len(srcs) == 0 {
		return fmt.Errorf("no sources configured")
	}

	pipeline, err := sys.NewPipeline(ingestion.WithPoolSize(c.Int("pool-size")))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	report, err := pipeline.Run(ctx, srcs)
	if report != nil {
		printReport(os.Stderr, report)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func filterSources(srcs []sources.Source, category string) []sources.Source {
	if category == "" {
		return srcs
	}
	var out []sources.Source
	for _, src := range srcs {
		if strings.EqualFold(src.Category(), category) {
			out = append(out, src)
		}
	}
	return out
}

func printReport(w io.Writer, report *ingestion.Report) {
	fmt.Fprintf(w, "%-24s %-12s %7s %7s %7s %7s %7s\n", "SOURCE", "CATEGORY", "FETCHED", "STORED", "CHUNKS", "DUPES", "FAILED")
	for _, s := range report.Sources {
		fmt.Fprintf(w, "%-24s %-12s %7d %7d %7d %7d %7d", s.Source, s.Category, s.Fetched, s.Stored, s.Chunks, s.Duplicates, s.Failed)
		if s.FetchErr != nil {
			fmt.Fprintf(w, "  %s", color.RedString("fetch failed: %v", s.FetchErr))
		}
		fmt.Fprintln(w)
	}
	t := report.Totals()
	fmt.Fprintf(w, "%-24s %-12s %7d %7d %7d %7d %7d  (%s)\n", t.Source, "", t.Fetched, t.Stored, t.Chunks, t.Duplicates, t.Failed, t.Duration.Round(time.Millisecond))
}

func initStorageCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	count, err := sys.Articles().Count(c.Context)
	if err != nil {
		return err
	}
	cfg := sys.Config()
	fmt.Fprintf(os.Stderr, "Article store: %s (%d articles)\n", cfg.StorePath(), count)
	fmt.Fprintf(os.Stderr, "Collection: %s (%s, dimension %d)\n", cfg.Vector.Collection, cfg.Vector.Backend, cfg.AI.Dimension)
	return nil
}

func resetCollectionCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	if err := sys.ResetCollection(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Collection %s reset\n", sys.Config().Vector.Collection)
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	rcfg := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if rcfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if rcfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if rcfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	reindexer, err := sys.NewReindexer(rcfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	cfg := sys.Config()
	fmt.Fprintf(os.Stderr, "Article store: %s\n", cfg.StorePath())
	fmt.Fprintf(os.Stderr, "Collection: %s\n", cfg.Vector.Collection)
	fmt.Fprintf(os.Stderr, "Embedding: %s %s\n", cfg.AI.EmbeddingBackend, cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	result, err := reindexer.Run(ctx)
	if err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Indexed %d of %d articles (%d chunks, %d empty, %d failed) in %s\n",
		result.Indexed, result.Articles, result.Chunks, result.Empty, result.Failed, result.Elapsed.Round(time.Millisecond))
	return nil
}

func askCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a question is required")
	}

	ctx, stop := signalContext(c)
	defer stop()

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	answerer, err := sys.NewAnswerer()
	if err != nil {
		return err
	}

	return streamAnswer(ctx, os.Stdout, answerer, answer.Request{
		Query:     query,
		Category:  c.String("category"),
		SessionID: c.String("session"),
	})
}

// streamAnswer prints the sources first, then the answer as it is generated.
func streamAnswer(ctx context.Context, w io.Writer, answerer *answer.Answerer, req answer.Request) error {
	heading := color.New(color.FgCyan, color.Bold)
	link := color.New(color.FgBlue)

	for event, err := range answerer.Answer(ctx, req) {
		if err != nil {
			fmt.Fprintln(w)
			return err
		}
		switch event.Type {
		case answer.EventSources:
			if len(event.Sources) == 0 {
				color.New(color.FgYellow).Fprintln(w, "No relevant articles found.")
			} else {
				heading.Fprintln(w, "Sources:")
				for i, src := range event.Sources {
					fmt.Fprintf(w, "  [%d] ", i+1)
					link.Fprintln(w, src)
				}
			}
			fmt.Fprintln(w)
		case answer.EventToken:
			fmt.Fprint(w, event.Content)
		case answer.EventDone:
			fmt.Fprintln(w)
		}
	}
	return nil
}
