package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/veralex-legal/casebrain/internal/config"
	"github.com/veralex-legal/casebrain/internal/database"
	"github.com/veralex-legal/casebrain/internal/extract"
	"github.com/veralex-legal/casebrain/internal/openai"
	"github.com/veralex-legal/casebrain/internal/repository"
	"github.com/veralex-legal/casebrain/internal/service"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [document-id]",
		Short: "Index documents from the command line",
		Long:  "Index a single document by ID, or every pending and failed document with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIndex,
	}

	cmd.Flags().Bool("all", false, "Index all pending and failed documents")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return fmt.Errorf("provide a document id or --all")
	}
	if all && len(args) > 0 {
		return fmt.Errorf("--all and a document id are mutually exclusive")
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required for indexing")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)

	indexingSvc := service.NewIndexingService(
		docRepo,
		chunkRepo,
		openai.NewClient(cfg.OpenAIAPIKey),
		extract.NewExtractor(),
		service.ChunkConfig{
			MaxTokens:     cfg.ChunkMaxTokens,
			OverlapTokens: cfg.ChunkOverlapTokens,
		},
	)

	if !all {
		result, err := indexingSvc.IndexDocument(ctx, args[0])
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		fmt.Printf("indexed document %s: %d chunks\n", result.DocumentID, result.ChunksStored)
		return nil
	}

	docs, err := docRepo.ListReindexable(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("nothing to index")
		return nil
	}

	log.Printf("indexing %d documents", len(docs))

	bulk := service.NewBulkIndexer(docRepo, indexingSvc, cfg.BulkBatchSize, cfg.BulkCooldown)
	totals := bulk.Run(ctx, docs)

	fmt.Printf("indexed %d of %d documents (%d failed)\n", totals.Indexed, totals.Total, totals.Failed)
	if totals.Failed > 0 {
		return fmt.Errorf("%d documents failed to index", totals.Failed)
	}
	return nil
}
