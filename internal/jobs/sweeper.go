package jobs

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	// DefaultLease is how long a document may stay 'indexing' before
	// the sweeper considers its run dead and resets it to 'pending'.
	DefaultLease = 10 * time.Minute

	// DefaultSweepInterval is how often the sweeper runs.
	DefaultSweepInterval = 1 * time.Minute
)

// StuckDocumentRepository resets documents whose indexing run died
// without recording a terminal status.
type StuckDocumentRepository interface {
	ResetStuck(ctx context.Context, lease time.Duration) (int64, error)
}

// StuckIndexSweeper returns documents abandoned mid-indexing (process
// crash, deploy) to 'pending' so the next bulk run picks them up again.
type StuckIndexSweeper struct {
	repo  StuckDocumentRepository
	lease time.Duration
}

// NewStuckIndexSweeper creates a sweeper with the given lease.
func NewStuckIndexSweeper(repo StuckDocumentRepository, lease time.Duration) *StuckIndexSweeper {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &StuckIndexSweeper{
		repo:  repo,
		lease: lease,
	}
}

// ProcessJobs implements the JobProcessor interface
func (s *StuckIndexSweeper) ProcessJobs(ctx context.Context) error {
	reset, err := s.repo.ResetStuck(ctx, s.lease)
	if err != nil {
		return fmt.Errorf("failed to reset stuck documents: %w", err)
	}

	if reset > 0 {
		log.Printf("jobs: reset %d stuck documents to pending lease=%v", reset, s.lease)
	}
	return nil
}
