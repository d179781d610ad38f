package reconcile

import (
	"context"
	"fmt"
	"sync"

	"example.com/rankboard/internal/domain"
)

// fakeDirectory is an in-memory Directory that counts every mutation and
// can inject per-member failures.
type fakeDirectory struct {
	mu        sync.Mutex
	labels    []domain.Label
	members   map[string]*domain.Member
	nextID    int
	memberErr map[string]error
	createErr error

	// raceLabel, when set, appears in the directory right after the first
	// listing, imitating a concurrent actor creating the label mid-pass.
	raceLabel string

	listCalls int
	creates   int
	adds      int
	removes   int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		members:   make(map[string]*domain.Member),
		memberErr: make(map[string]error),
	}
}

func (f *fakeDirectory) addMember(userID, username string, automated bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[userID] = &domain.Member{UserID: userID, Username: username, Automated: automated}
}

func (f *fakeDirectory) addLabelNamed(name string) domain.Label {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLabelLocked(name)
}

func (f *fakeDirectory) addLabelLocked(name string) domain.Label {
	f.nextID++
	label := domain.Label{ID: fmt.Sprintf("label-%d", f.nextID), Name: name}
	f.labels = append(f.labels, label)
	return label
}

func (f *fakeDirectory) grant(userID string, labelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.members[userID]
	m.LabelIDs = append(m.LabelIDs, labelID)
}

func (f *fakeDirectory) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates + f.adds + f.removes
}

func (f *fakeDirectory) labelNamesFor(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[string]string, len(f.labels))
	for _, l := range f.labels {
		byID[l.ID] = l.Name
	}
	var names []string
	for _, id := range f.members[userID].LabelIDs {
		names = append(names, byID[id])
	}
	return names
}

func (f *fakeDirectory) Labels(context.Context, string) ([]domain.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := append([]domain.Label(nil), f.labels...)
	if f.listCalls == 1 && f.raceLabel != "" {
		f.addLabelLocked(f.raceLabel)
	}
	return out, nil
}

func (f *fakeDirectory) CreateLabel(_ context.Context, _ string, name string) (domain.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.Label{}, f.createErr
	}
	f.creates++
	return f.addLabelLocked(name), nil
}

func (f *fakeDirectory) Member(_ context.Context, _ string, userID string) (domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.memberErr[userID]; err != nil {
		return domain.Member{}, err
	}
	m, ok := f.members[userID]
	if !ok {
		return domain.Member{}, fmt.Errorf("unknown member %s", userID)
	}
	return *m, nil
}

func (f *fakeDirectory) AddLabel(_ context.Context, _ string, userID, labelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	m := f.members[userID]
	m.LabelIDs = append(m.LabelIDs, labelID)
	return nil
}

func (f *fakeDirectory) RemoveLabels(_ context.Context, _ string, userID string, labelIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	drop := make(map[string]struct{}, len(labelIDs))
	for _, id := range labelIDs {
		drop[id] = struct{}{}
	}
	m := f.members[userID]
	kept := m.LabelIDs[:0]
	for _, id := range m.LabelIDs {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	m.LabelIDs = kept
	return nil
}

func (f *fakeDirectory) Members(context.Context, string) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Member, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, *m)
	}
	return out, nil
}
