// Package main provides the sage CLI for managing and querying the local
// file index.
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

	"github.com/bull/sage-search/internal/chunker"
	"github.com/bull/sage-search/internal/config"
	"github.com/bull/sage-search/internal/embedding"
	"github.com/bull/sage-search/internal/extract"
	"github.com/bull/sage-search/internal/indexer"
	"github.com/bull/sage-search/internal/ledger"
	"github.com/bull/sage-search/internal/retry"
	"github.com/bull/sage-search/internal/scan"
	"github.com/bull/sage-search/internal/search"
	"github.com/bull/sage-search/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Semantic search over your local files",
	Long:  "CLI for indexing local directories and searching them semantically",
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run an incremental indexing pass over the watched directories",
	Long: `Scans every watched directory, diffs against the ledger, and indexes
new and changed files. Deleted files are removed from the index.

Environment variables:
  OPENAI_API_KEY OpenAI API key (required when embedder.type is "openai")`,
	RunE: runIndex,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Manage the watched directories",
}

var rootsAddCmd = &cobra.Command{
	Use:   "add <dir>",
	Short: "Watch a directory for indexing",
	Args:  cobra.ExactArgs(1),
	RunE:  runRootsAdd,
}

var rootsRemoveCmd = &cobra.Command{
	Use:   "remove <dir>",
	Short: "Stop watching a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRootsRemove,
}

var rootsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the watched directories",
	RunE:  runRootsList,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE:  runStatus,
}

var (
	searchTopK  int
	searchRoots []string
	searchPaths []string
)

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results")
	searchCmd.Flags().StringArrayVar(&searchRoots, "root", nil, "restrict to files under this directory (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchPaths, "path", nil, "restrict to this exact file (repeatable)")

	rootsCmd.AddCommand(rootsAddCmd, rootsRemoveCmd, rootsListCmd)
	rootCmd.AddCommand(indexCmd, searchCmd, rootsCmd, statusCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	embedder, store, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ch, err := chunker.New(cfg.Indexer.ChunkSize, cfg.Indexer.ChunkOverlap, cfg.Indexer.MinChunkLength)
	if err != nil {
		return fmt.Errorf("invalid chunker configuration: %w", err)
	}

	scanner := scan.NewScanner(cfg.Indexer.AllowedExtensions, slog.Default())
	pipeline := indexer.NewPipeline(scanner, extract.NewRegistry(), ch, embedder, store, led, cfg.Indexer.FilterSensitive, slog.Default())

	fmt.Println("Indexing...")
	result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Indexing complete!")
	fmt.Printf("  Scanned:  %d files\n", result.ScannedFiles)
	fmt.Printf("  New:      %d\n", result.NewFiles)
	fmt.Printf("  Changed:  %d\n", result.ChangedFiles)
	fmt.Printf("  Deleted:  %d\n", result.DeletedFiles)
	fmt.Printf("  Chunks:   %d\n", result.IndexedChunks)
	if result.FilteredChunks > 0 {
		fmt.Printf("  Filtered: %d chunks (sensitive content)\n", result.FilteredChunks)
	}
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.SkippedFiles) > 0 {
		fmt.Println()
		fmt.Println("Skipped files:")
		for _, skipped := range result.SkippedFiles {
			fmt.Printf("  - %s: %s\n", skipped.Path, skipped.Reason)
		}
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	cfg, led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	embedder, store, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	searcher := search.NewSearcher(store, embedder, cfg.Search, slog.Default())
	results, err := searcher.Search(ctx, query, searchTopK, search.Scope{
		Roots: searchRoots,
		Paths: searchPaths,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. %s  (score %.3f)\n", i+1, result.File, result.HybridScore)
		fmt.Printf("   %s\n", result.Path)
		fmt.Printf("   %s\n", result.Snippet)
		if len(result.MatchedTerms) > 0 {
			fmt.Printf("   matched: %s\n", strings.Join(result.MatchedTerms, ", "))
		}
		fmt.Println()
	}
	return nil
}

func runRootsAdd(cmd *cobra.Command, args []string) error {
	_, led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	normalized, err := led.AddRoot(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Watching %s\n", normalized)
	fmt.Println("Run `sage index` to index it.")
	return nil
}

func runRootsRemove(cmd *cobra.Command, args []string) error {
	_, led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	if err := led.RemoveRoot(args[0]); err != nil {
		return err
	}
	fmt.Printf("Stopped watching %s\n", args[0])
	fmt.Println("Run `sage index` to drop its files from the index.")
	return nil
}

func runRootsList(cmd *cobra.Command, args []string) error {
	_, led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	roots, err := led.Roots()
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		fmt.Println("No directories are being watched. Add one with `sage roots add <dir>`.")
		return nil
	}
	for _, root := range roots {
		fmt.Println(root)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, led, err := openLedger()
	if err != nil {
		return err
	}
	defer led.Close()

	rows, err := led.All()
	if err != nil {
		return err
	}
	roots, err := led.Roots()
	if err != nil {
		return err
	}

	var last time.Time
	for _, rec := range rows {
		if rec.IndexedAt.After(last) {
			last = rec.IndexedAt
		}
	}

	fmt.Printf("Roots:         %d\n", len(roots))
	for _, root := range roots {
		fmt.Printf("  - %s\n", root)
	}
	fmt.Printf("Indexed files: %d\n", len(rows))
	if !last.IsZero() {
		fmt.Printf("Last indexed:  %s\n", last.Local().Format(time.RFC1123))
	}

	// Chunk count needs the store; skip quietly when it is unreachable.
	if _, store, err := connect(ctx, cfg); err == nil {
		defer store.Close()
		if count, err := store.Count(ctx); err == nil {
			fmt.Printf("Chunks:        %d\n", count)
		}
	}
	return nil
}

func openLedger() (*config.Config, *ledger.Ledger, error) {
	cfg, _, err := config.LoadDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	led, err := ledger.Open(cfg.Ledger.Path, false)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return cfg, led, nil
}

func connect(ctx context.Context, cfg *config.Config) (embedding.Embedder, storage.Store, error) {
	policy := retry.DefaultPolicy()

	var embedder embedding.Embedder
	switch cfg.Embedder.Type {
	case "local":
		embedder = embedding.NewLocal(
			cfg.Embedder.Local.BaseURL,
			cfg.Embedder.Local.Dimension,
			time.Duration(cfg.Embedder.Local.TimeoutSecs)*time.Second,
			policy,
		)
	case "openai":
		var err error
		embedder, err = embedding.NewOpenAI(cfg.Embedder.OpenAI.Model, cfg.Embedder.OpenAI.BatchSize, policy)
		if err != nil {
			return nil, nil, fmt.Errorf("create embedder: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}

	store, err := storage.NewQdrant(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.Collection, embedder.Dimension(), policy)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to qdrant: %w", err)
	}
	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure collection: %w", err)
	}
	return embedder, store, nil
}
