// Package ranking computes rank assignments from activity counters.
package ranking

import (
	"sort"

	"example.com/rankboard/internal/domain"
)

// Compute assigns 1-based ranks to the supplied top slice and returns the
// full snapshot alongside the subset whose rank moved. Ordering is message
// count descending with user id ascending as the tie-break, so the
// assignment is a total order even when counts collide. Entries with a zero
// count are never ranked. The input is not mutated.
func Compute(top []domain.RankedUser) (snapshot, changed []domain.RankedUser) {
	snapshot = make([]domain.RankedUser, 0, len(top))
	for _, u := range top {
		if u.MessageCount <= 0 {
			continue
		}
		snapshot = append(snapshot, u)
	}

	// The store already orders its ranked query, but the assignment must
	// hold regardless of where the slice came from.
	sort.SliceStable(snapshot, func(i, j int) bool {
		if snapshot[i].MessageCount != snapshot[j].MessageCount {
			return snapshot[i].MessageCount > snapshot[j].MessageCount
		}
		return snapshot[i].UserID < snapshot[j].UserID
	})

	for i := range snapshot {
		snapshot[i].NewRank = i + 1
		if snapshot[i].Changed() {
			changed = append(changed, snapshot[i])
		}
	}
	return snapshot, changed
}

// Updates projects a snapshot into the store mutations that persist it.
func Updates(snapshot []domain.RankedUser) []domain.RankUpdate {
	updates := make([]domain.RankUpdate, 0, len(snapshot))
	for _, u := range snapshot {
		updates = append(updates, domain.RankUpdate{UserID: u.UserID, Rank: u.NewRank})
	}
	return updates
}
