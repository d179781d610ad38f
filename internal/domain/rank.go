// Package domain defines the shared data types for the ranking engine.
package domain

import "time"

// Unranked is the rank value for users outside the tracked top set.
const Unranked = 0

// RankedUser is one leaderboard entry as seen by a reconciliation pass.
// PreviousRank carries the rank stored before the pass; NewRank is filled
// in by the calculator. Unranked (0) means the user holds no rank.
type RankedUser struct {
	UserID       string
	Username     string
	MessageCount int64
	PreviousRank int
	NewRank      int
}

// Changed reports whether the entry's rank moved during this pass.
func (u RankedUser) Changed() bool {
	return u.PreviousRank != u.NewRank
}

// RankUpdate is a single stored-rank mutation handed to the store.
type RankUpdate struct {
	UserID string
	Rank   int
}

// Label is a rank label held in the membership directory. The directory
// identifies it by ID; the displayed Name encodes the rank number.
type Label struct {
	ID   string
	Name string
}

// Member is a directory member together with the label IDs they hold.
// Automated members (bots) never participate in the ranking.
type Member struct {
	UserID    string
	Username  string
	Automated bool
	LabelIDs  []string
}

// ActivityEvent is a gateway message-create translated into the shape the
// core consumes. RoleIDs is the author's role set, used for exclusion
// filtering before the event reaches the store.
type ActivityEvent struct {
	CommunityID string
	UserID      string
	Username    string
	Automated   bool
	RoleIDs     []string
	ObservedAt  time.Time
}
