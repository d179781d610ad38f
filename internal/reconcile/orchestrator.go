package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"example.com/rankboard/internal/domain"
	"example.com/rankboard/internal/observability"
	"example.com/rankboard/internal/ranking"
)

// Store is the activity store the orchestrator reads counters from and
// writes computed ranks back to.
type Store interface {
	TopRanked(ctx context.Context, limit int) ([]domain.RankedUser, error)
	PersistRanks(ctx context.Context, updates []domain.RankUpdate) error
	ClearRanksOutside(ctx context.Context, limit int) error
}

// Orchestrator runs one full reconciliation pass per trigger: fetch the
// ranked slice, diff it, persist the new ranks, and sync directory labels.
type Orchestrator struct {
	store      Store
	reconciler *Reconciler
	limit      int
	logger     *log.Logger
}

// NewOrchestrator constructs an Orchestrator tracking the top limit ranks.
func NewOrchestrator(store Store, reconciler *Reconciler, limit int, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[reconcile] ", log.LstdFlags)
	}
	return &Orchestrator{store: store, reconciler: reconciler, limit: limit, logger: logger}
}

// Reconcile runs one pass for the community. When no rank moved the pass
// short-circuits without touching the store again or the directory at all.
// Store failures abort the pass before any directory mutation; the
// transactional rank write means a failed pass leaves no partial ranks.
func (o *Orchestrator) Reconcile(ctx context.Context, communityID string) error {
	top, err := o.store.TopRanked(ctx, o.limit)
	if err != nil {
		recordPass(communityID, "error")
		return fmt.Errorf("fetch top ranked: %w", err)
	}

	snapshot, changed := ranking.Compute(top)
	if len(changed) == 0 {
		o.logger.Printf("no rank changes (community=%s)", communityID)
		recordPass(communityID, "noop")
		return nil
	}
	o.logger.Printf("%d rank changes (community=%s)", len(changed), communityID)

	if err := o.store.PersistRanks(ctx, ranking.Updates(snapshot)); err != nil {
		recordPass(communityID, "error")
		return fmt.Errorf("persist ranks: %w", err)
	}
	if err := o.store.ClearRanksOutside(ctx, o.limit); err != nil {
		recordPass(communityID, "error")
		return fmt.Errorf("clear ranks outside top %d: %w", o.limit, err)
	}

	if err := o.reconciler.Apply(ctx, communityID, snapshot, changed); err != nil {
		recordPass(communityID, "error")
		return fmt.Errorf("apply labels: %w", err)
	}

	recordRankChanges(communityID, len(changed))
	recordPass(communityID, "ok")
	observability.RecordPassCompleted(time.Now().UTC())
	return nil
}
