package exam

import "context"

type ListOpts struct {
	Q      string
	Limit  int
	Offset int
}

type AttemptListOpts struct {
	TestID string
	UserID string
	Status string // optional: in_progress|submitted
	Limit  int
	Offset int
}

// Store persists the content model and attempts. Item and stimulus lookups
// come back as id-keyed maps in the shape the validator consumes; ids that do
// not resolve are simply absent, which is exactly what the validator reports.
type Store interface {
	PutTest(ctx context.Context, def TestDef) error
	GetTest(ctx context.Context, id string) (TestDef, error)
	ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error)

	PutItems(ctx context.Context, items []Item) error
	GetItems(ctx context.Context, ids []string) (map[string]Item, error)
	PutStimuli(ctx context.Context, stimuli []Stimulus) error
	GetStimuli(ctx context.Context, ids []string) (map[string]Stimulus, error)

	NewAttempt(ctx context.Context, testID, userID string) (Attempt, error)
	SaveAnswers(ctx context.Context, attemptID string, answers []Answer) (Attempt, error)
	Submit(ctx context.Context, attemptID string) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
}

// Lookups assembles the item and stimulus maps for one TestDef in a single
// pass: every referenced item, then every stimulus those items point at. The
// two fetches are one snapshot as far as the validator is concerned; keeping
// it coherent against concurrent edits is the caller's transaction problem.
func Lookups(ctx context.Context, s Store, def TestDef) (map[string]Item, map[string]Stimulus, error) {
	ids := make([]string, 0, 64)
	for id := range ItemScope(def) {
		ids = append(ids, id)
	}
	items, err := s.GetItems(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	stimIDs := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		if it.StimulusID != "" && !seen[it.StimulusID] {
			seen[it.StimulusID] = true
			stimIDs = append(stimIDs, it.StimulusID)
		}
	}
	stimuli, err := s.GetStimuli(ctx, stimIDs)
	if err != nil {
		return nil, nil, err
	}
	return items, stimuli, nil
}
