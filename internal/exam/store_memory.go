package exam

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.RWMutex
	tests    map[string]TestDef
	items    map[string]Item
	stimuli  map[string]Stimulus
	attempts map[string]Attempt
}

// NewInMemoryStore backs the API with plain maps; used in tests and for
// single-box demo mode.
func NewInMemoryStore() Store {
	return &memoryStore{
		tests:    map[string]TestDef{},
		items:    map[string]Item{},
		stimuli:  map[string]Stimulus{},
		attempts: map[string]Attempt{},
	}
}

func (m *memoryStore) PutTest(ctx context.Context, def TestDef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if def.CreatedAt == 0 {
		def.CreatedAt = time.Now().Unix()
	}
	m.tests[def.ID] = def
	return nil
}

func (m *memoryStore) GetTest(ctx context.Context, id string) (TestDef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.tests[id]
	if !ok {
		return TestDef{}, errors.New("test not found")
	}
	return def, nil
}

func (m *memoryStore) ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TestSummary, 0, len(m.tests))
	for _, def := range m.tests {
		if opts.Q != "" && !strings.Contains(strings.ToLower(def.Title), strings.ToLower(opts.Q)) {
			continue
		}
		n := 0
		if def.TotalQuestions != nil {
			n = *def.TotalQuestions
		}
		out = append(out, TestSummary{
			ID:            def.ID,
			Title:         def.Title,
			TotalDuration: def.TotalDurationMin,
			Questions:     n,
			CreatedAt:     def.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) PutItems(ctx context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.items[it.ID] = it
	}
	return nil
}

func (m *memoryStore) GetItems(ctx context.Context, ids []string) (map[string]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Item, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (m *memoryStore) PutStimuli(ctx context.Context, stimuli []Stimulus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range stimuli {
		m.stimuli[st.ID] = st
	}
	return nil
}

func (m *memoryStore) GetStimuli(ctx context.Context, ids []string) (map[string]Stimulus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Stimulus, len(ids))
	for _, id := range ids {
		if st, ok := m.stimuli[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (m *memoryStore) NewAttempt(ctx context.Context, testID, userID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tests[testID]; !ok {
		return Attempt{}, errors.New("test not found")
	}
	a := Attempt{
		ID:        uuid.NewString(),
		TestID:    testID,
		UserID:    userID,
		Status:    "in_progress",
		StartedAt: time.Now().Unix(),
	}
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memoryStore) SaveAnswers(ctx context.Context, attemptID string, answers []Answer) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, errors.New("attempt not found")
	}
	if a.Status == "submitted" {
		return Attempt{}, errors.New("attempt already submitted")
	}
	// last write per item wins
	byItem := map[string]int{}
	for i, prev := range a.Answers {
		byItem[prev.ItemID] = i
	}
	for _, ans := range answers {
		if i, ok := byItem[ans.ItemID]; ok {
			a.Answers[i] = ans
			continue
		}
		byItem[ans.ItemID] = len(a.Answers)
		a.Answers = append(a.Answers, ans)
	}
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, errors.New("attempt not found")
	}
	if a.Status == "submitted" {
		return a, nil
	}
	def, ok := m.tests[a.TestID]
	if !ok {
		return Attempt{}, errors.New("test not found")
	}
	a.ListeningCorrect, a.ReadingCorrect = ScoreAttempt(a, def, m.items)
	a.Status = "submitted"
	a.SubmittedAt = time.Now().Unix()
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, errors.New("attempt not found")
	}
	return a, nil
}

func (m *memoryStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		if opts.TestID != "" && a.TestID != opts.TestID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return page(out, opts.Limit, opts.Offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
