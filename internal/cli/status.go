package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veralex-legal/casebrain/internal/config"
	"github.com/veralex-legal/casebrain/internal/database"
	"github.com/veralex-legal/casebrain/internal/repository"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show document indexing status counts",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	counts, err := repository.NewDocumentRepository(pool).StatusCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch status counts: %w", err)
	}

	fmt.Printf("total:    %d\n", counts.Total)
	fmt.Printf("indexed:  %d\n", counts.Indexed)
	fmt.Printf("pending:  %d\n", counts.Pending)
	fmt.Printf("indexing: %d\n", counts.Indexing)
	fmt.Printf("failed:   %d\n", counts.Failed)
	return nil
}
