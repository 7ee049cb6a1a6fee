// Package main provides the incident report indexing and query CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/incidentlabs/hybrid-index/internal/embedding"
	"github.com/incidentlabs/hybrid-index/internal/extract"
	"github.com/incidentlabs/hybrid-index/internal/index"
	"github.com/incidentlabs/hybrid-index/internal/pipeline"
	"github.com/incidentlabs/hybrid-index/internal/search"
	"github.com/incidentlabs/hybrid-index/internal/source"
	"github.com/incidentlabs/hybrid-index/internal/term"
)

var rootCmd = &cobra.Command{
	Use:   "incident",
	Short: "Incident report indexing and hybrid search tool",
	Long:  "CLI tool for ingesting incident reports into Qdrant and querying them with weighted hybrid search",
}

var (
	ingestDir    string
	ingestRepo   string
	ingestPath   string
	ingestLimit  int
	ingestClear  bool
	ingestSchema string
	queryAlpha   float64
	queryTopK    int
	queryYear    int
	queryCraft   string
	queryWhere   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest incident reports into the index",
	Long: `Partitions, enriches and indexes incident reports.

This command:
1. Connects to Qdrant and verifies health
2. Lists report files from a local directory or a GitHub repository
3. Partitions each report and infers an entity schema for the batch
4. Extracts entities, chunks, embeds and tokenizes each report
5. Writes dense and sparse vectors with metadata to Qdrant

Environment variables:
  QDRANT_HOST       Qdrant hostname (default: localhost)
  QDRANT_PORT       Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION Collection name (default: incident-reports)
  OPENAI_API_KEY    OpenAI API key for embeddings and extraction (required)
  GITHUB_TOKEN      GitHub token for higher rate limits (optional)`,
	RunE: runIngest,
}

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run a weighted hybrid query against the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "local directory of report files")
	ingestCmd.Flags().StringVar(&ingestRepo, "repo", "", "GitHub repository (owner/name) of report files")
	ingestCmd.Flags().StringVar(&ingestPath, "path", "", "base path inside the repository")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "ingest at most N reports (0 = all)")
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear the collection before ingesting")
	ingestCmd.Flags().StringVar(&ingestSchema, "schema", "incident", "name of the inferred entity schema")

	queryCmd.Flags().Float64Var(&queryAlpha, "alpha", 0.8, "dense/sparse balance in [0,1]")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", search.DefaultTopK, "number of results")
	queryCmd.Flags().IntVar(&queryYear, "year", 0, "restrict to incidents from this year")
	queryCmd.Flags().StringVar(&queryCraft, "aircraft", "", "restrict to this aircraft type")
	queryCmd.Flags().StringVar(&queryWhere, "location", "", "restrict to this location")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func connectIndex(ctx context.Context) (*index.Qdrant, error) {
	cfg := index.QdrantConfig{
		Host:       getEnv("QDRANT_HOST", "localhost"),
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnv("QDRANT_COLLECTION", "incident-reports"),
		Dimension:  embedding.Dimension,
	}
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.Host, cfg.Port)
	idx, err := index.NewQdrant(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	if err := idx.Health(ctx); err != nil {
		idx.Close()
		return nil, fmt.Errorf("Qdrant health check failed: %w", err)
	}
	if err := idx.EnsureCollection(ctx); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return idx, nil
}

func buildSource() (source.Source, error) {
	switch {
	case ingestDir != "":
		return source.NewLocal(ingestDir), nil
	case ingestRepo != "":
		owner, repo, ok := strings.Cut(ingestRepo, "/")
		if !ok {
			return nil, fmt.Errorf("--repo must be owner/name, got %q", ingestRepo)
		}
		return source.NewGitHub(owner, repo, ingestPath)
	default:
		return nil, fmt.Errorf("either --dir or --repo is required")
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	src, err := buildSource()
	if err != nil {
		return err
	}

	idx, err := connectIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close()
	fmt.Println("Qdrant healthy")

	if ingestClear {
		fmt.Println("Clearing existing collection...")
		if err := idx.ClearCollection(ctx); err != nil {
			return fmt.Errorf("failed to clear collection: %w", err)
		}
	}

	client, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, 0) // default batch size
	extractor := extract.NewOpenAI(client.Client())

	fmt.Println()
	fmt.Println("Ingesting reports...")
	p := pipeline.New(pipeline.Config{
		Source:     src,
		Extractor:  extractor,
		Provider:   embedder,
		Index:      idx,
		Tokenizer:  term.NewTokenizer(),
		SchemaName: ingestSchema,
		Limit:      ingestLimit,
		Logger:     slog.Default(),
	})

	result, err := p.IngestAll(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingest complete!")
	fmt.Printf("  Reports: %d/%d\n", result.Partitioned, result.TotalDocs)
	fmt.Printf("  Chunks: %d\n", result.IndexedChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s (%s): %s\n", failed.ID, failed.Stage, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	idx, err := connectIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close()

	client, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, 0)
	composer := search.NewComposer(embedder, term.NewTokenizer(), idx)

	var leaves []*index.Filter
	if queryYear != 0 {
		leaves = append(leaves, index.Eq("entity.year", queryYear))
	}
	if queryCraft != "" {
		leaves = append(leaves, index.Eq("entity.aircraft", queryCraft))
	}
	if queryWhere != "" {
		leaves = append(leaves, index.Eq("entity.location", queryWhere))
	}
	var filter *index.Filter
	switch len(leaves) {
	case 0:
	case 1:
		filter = leaves[0]
	default:
		filter = index.All(leaves...)
	}

	hits, err := composer.HybridQuery(ctx, question, queryAlpha, filter, queryTopK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for _, hit := range hits {
		fmt.Println(search.Format(hit))
		fmt.Println()
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
