// Package reconcile drives reconciliation passes and keeps directory rank
// labels in line with the computed leaderboard.
package reconcile

import (
	"context"
	"log"

	"example.com/rankboard/internal/domain"
)

// Directory is the external membership directory the reconciler mutates.
// The directory does not enforce label exclusivity; the reconciler does.
type Directory interface {
	Labels(ctx context.Context, communityID string) ([]domain.Label, error)
	CreateLabel(ctx context.Context, communityID, name string) (domain.Label, error)
	Member(ctx context.Context, communityID, userID string) (domain.Member, error)
	AddLabel(ctx context.Context, communityID, userID, labelID string) error
	RemoveLabels(ctx context.Context, communityID, userID string, labelIDs []string) error
	Members(ctx context.Context, communityID string) ([]domain.Member, error)
}

// Reconciler applies a computed rank diff to the membership directory.
type Reconciler struct {
	dir    Directory
	limit  int
	logger *log.Logger
}

// NewReconciler constructs a Reconciler tracking the top limit ranks.
func NewReconciler(dir Directory, limit int, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(log.Writer(), "[reconcile] ", log.LstdFlags)
	}
	return &Reconciler{dir: dir, limit: limit, logger: logger}
}

// Apply makes the community's rank labels match the snapshot. Changed
// members get their old labels stripped and the new one assigned; members
// outside the tracked set lose any rank labels they still hold. Each
// member is handled independently: a failure on one is logged and the rest
// proceed. Re-running with the same inputs performs no further mutations.
func (r *Reconciler) Apply(ctx context.Context, communityID string, snapshot, changed []domain.RankedUser) error {
	labels, err := r.dir.Labels(ctx, communityID)
	if err != nil {
		return err
	}
	byRank := make(map[int]domain.Label, r.limit)
	byID := make(map[string]domain.Label, len(labels))
	for _, l := range labels {
		byID[l.ID] = l
		if rank, ok := rankFromLabel(l.Name, r.limit); ok {
			if _, dup := byRank[rank]; !dup {
				byRank[rank] = l
			}
		}
	}

	for _, user := range changed {
		if err := r.reconcileMember(ctx, communityID, user, byRank, byID); err != nil {
			r.logger.Printf("member skipped (community=%s, user=%s): %v", communityID, user.UserID, err)
			recordMemberError(communityID)
		}
	}

	return r.pruneOutsiders(ctx, communityID, snapshot, byID)
}

func (r *Reconciler) reconcileMember(ctx context.Context, communityID string, user domain.RankedUser, byRank map[int]domain.Label, byID map[string]domain.Label) error {
	member, err := r.dir.Member(ctx, communityID, user.UserID)
	if err != nil {
		return err
	}

	// Strip every rank label except the one the member should end up with.
	// A member should hold at most one, but the directory is not trusted to
	// have kept exclusivity, and the sweep makes a rerun after a partial
	// failure converge without mutating members that are already correct.
	targetName := ""
	if user.NewRank != domain.Unranked {
		targetName = labelName(user.NewRank)
	}
	var stale []string
	holdsTarget := false
	for _, id := range member.LabelIDs {
		label, ok := byID[id]
		if !ok {
			continue
		}
		if _, isRank := rankFromLabel(label.Name, r.limit); !isRank {
			continue
		}
		if label.Name == targetName && !holdsTarget {
			holdsTarget = true
			continue
		}
		stale = append(stale, id)
	}
	if len(stale) > 0 {
		if err := r.dir.RemoveLabels(ctx, communityID, user.UserID, stale); err != nil {
			return err
		}
		recordLabelMutation(communityID, "remove")
	}

	if user.NewRank == domain.Unranked || holdsTarget {
		return nil
	}

	label, ok := byRank[user.NewRank]
	if !ok {
		label, err = r.provisionLabel(ctx, communityID, user.NewRank)
		if err != nil {
			return err
		}
		byRank[user.NewRank] = label
		byID[label.ID] = label
	}

	if err := r.dir.AddLabel(ctx, communityID, user.UserID, label.ID); err != nil {
		return err
	}
	recordLabelMutation(communityID, "add")
	r.logger.Printf("rank %s: %s -> %d (was %d)", label.Name, user.Username, user.NewRank, user.PreviousRank)
	return nil
}

// provisionLabel creates the label for a rank, tolerating a concurrent
// creator: the directory is re-listed first and an existing label wins.
func (r *Reconciler) provisionLabel(ctx context.Context, communityID string, rank int) (domain.Label, error) {
	name := labelName(rank)

	labels, err := r.dir.Labels(ctx, communityID)
	if err != nil {
		return domain.Label{}, err
	}
	for _, l := range labels {
		if l.Name == name {
			return l, nil
		}
	}

	label, err := r.dir.CreateLabel(ctx, communityID, name)
	if err != nil {
		return domain.Label{}, err
	}
	recordLabelMutation(communityID, "create")
	return label, nil
}

func (r *Reconciler) stripRankLabels(ctx context.Context, communityID string, member domain.Member, byID map[string]domain.Label) error {
	var stale []string
	for _, id := range member.LabelIDs {
		label, ok := byID[id]
		if !ok {
			continue
		}
		if _, isRank := rankFromLabel(label.Name, r.limit); isRank {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := r.dir.RemoveLabels(ctx, communityID, member.UserID, stale); err != nil {
		return err
	}
	recordLabelMutation(communityID, "remove")
	return nil
}

// pruneOutsiders strips rank labels from every member outside the tracked
// set, catching users who dropped out of the top set without generating
// any activity of their own.
func (r *Reconciler) pruneOutsiders(ctx context.Context, communityID string, snapshot []domain.RankedUser, byID map[string]domain.Label) error {
	tracked := make(map[string]struct{}, len(snapshot))
	for _, u := range snapshot {
		tracked[u.UserID] = struct{}{}
	}

	members, err := r.dir.Members(ctx, communityID)
	if err != nil {
		return err
	}

	for _, member := range members {
		if member.Automated {
			continue
		}
		if _, ok := tracked[member.UserID]; ok {
			continue
		}
		if err := r.stripRankLabels(ctx, communityID, member, byID); err != nil {
			r.logger.Printf("prune skipped (community=%s, user=%s): %v", communityID, member.UserID, err)
			recordMemberError(communityID)
		}
	}
	return nil
}
