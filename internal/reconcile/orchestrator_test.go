package reconcile

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/rankboard/internal/domain"
)

type stubStore struct {
	top        []domain.RankedUser
	topErr     error
	persistErr error

	persisted    [][]domain.RankUpdate
	clearedLimit []int
}

func (s *stubStore) TopRanked(context.Context, int) ([]domain.RankedUser, error) {
	return s.top, s.topErr
}

func (s *stubStore) PersistRanks(_ context.Context, updates []domain.RankUpdate) error {
	if s.persistErr != nil {
		return s.persistErr
	}
	s.persisted = append(s.persisted, updates)
	return nil
}

func (s *stubStore) ClearRanksOutside(_ context.Context, limit int) error {
	s.clearedLimit = append(s.clearedLimit, limit)
	return nil
}

func testOrchestrator(t *testing.T, store Store, dir Directory) *Orchestrator {
	t.Helper()
	logger := log.New(testWriter{t}, "", 0)
	return NewOrchestrator(store, NewReconciler(dir, testLimit, logger), testLimit, logger)
}

func TestReconcileShortCircuitsWithoutChanges(t *testing.T) {
	store := &stubStore{top: []domain.RankedUser{
		{UserID: "a", MessageCount: 9, PreviousRank: 1},
		{UserID: "b", MessageCount: 4, PreviousRank: 2},
	}}
	dir := newFakeDirectory()

	orch := testOrchestrator(t, store, dir)
	require.NoError(t, orch.Reconcile(context.Background(), "g"))

	require.Empty(t, store.persisted, "no ranks may be written on a noop pass")
	require.Empty(t, store.clearedLimit)
	require.Equal(t, 0, dir.listCalls, "the directory must not be touched on a noop pass")
}

func TestReconcilePersistsThenSyncsLabels(t *testing.T) {
	store := &stubStore{top: []domain.RankedUser{
		{UserID: "a", MessageCount: 9, PreviousRank: 2},
		{UserID: "b", MessageCount: 4, PreviousRank: 1},
	}}
	dir := newFakeDirectory()
	dir.addMember("a", "anton", false)
	dir.addMember("b", "bella", false)

	orch := testOrchestrator(t, store, dir)
	require.NoError(t, orch.Reconcile(context.Background(), "g"))

	// Every snapshot entry is persisted, not just the changed subset.
	require.Len(t, store.persisted, 1)
	require.Equal(t, []domain.RankUpdate{{UserID: "a", Rank: 1}, {UserID: "b", Rank: 2}}, store.persisted[0])
	require.Equal(t, []int{testLimit}, store.clearedLimit)

	require.Equal(t, []string{"1"}, dir.labelNamesFor("a"))
	require.Equal(t, []string{"2"}, dir.labelNamesFor("b"))
}

func TestReconcileAbortsOnStoreFailure(t *testing.T) {
	store := &stubStore{topErr: errors.New("connection refused")}
	dir := newFakeDirectory()

	orch := testOrchestrator(t, store, dir)
	err := orch.Reconcile(context.Background(), "g")
	require.Error(t, err)
	require.Equal(t, 0, dir.listCalls)
}

func TestReconcileStopsBeforeDirectoryOnPersistFailure(t *testing.T) {
	store := &stubStore{
		top:        []domain.RankedUser{{UserID: "a", MessageCount: 3}},
		persistErr: errors.New("transaction aborted"),
	}
	dir := newFakeDirectory()

	orch := testOrchestrator(t, store, dir)
	require.Error(t, orch.Reconcile(context.Background(), "g"))
	require.Empty(t, store.clearedLimit)
	require.Equal(t, 0, dir.listCalls)
}
