package exam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) (Store, TestDef) {
	t.Helper()
	ctx := context.Background()
	store := NewInMemoryStore()

	def, items, stimuli := canonicalFixture()
	all := make([]Item, 0, len(items))
	for _, it := range items {
		all = append(all, it)
	}
	sts := make([]Stimulus, 0, len(stimuli))
	for _, st := range stimuli {
		sts = append(sts, st)
	}
	require.NoError(t, store.PutItems(ctx, all))
	require.NoError(t, store.PutStimuli(ctx, sts))
	require.NoError(t, store.PutTest(ctx, def))
	return store, def
}

func TestMemoryStore_TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, def := seedStore(t)

	got, err := store.GetTest(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, def.ID, got.ID)
	require.NotNil(t, got.TotalQuestions)
	assert.Equal(t, 200, *got.TotalQuestions)

	_, err = store.GetTest(ctx, "missing")
	assert.Error(t, err)

	list, err := store.ListTests(ctx, ListOpts{Q: "toeic"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, def.ID, list[0].ID)

	list, err = store.ListTests(ctx, ListOpts{Q: "no-such-title"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore_LookupsMatchValidatorExpectations(t *testing.T) {
	ctx := context.Background()
	store, def := seedStore(t)

	items, stimuli, err := Lookups(ctx, store, def)
	require.NoError(t, err)
	assert.Len(t, items, 200)
	assert.Len(t, stimuli, 5) // parts 1, 3, 4, 6, 7 share one stimulus each

	v := NewValidator()
	assert.Empty(t, v.ValidateTest(def, items, stimuli))
}

func TestMemoryStore_AttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	store, def := seedStore(t)

	a, err := store.NewAttempt(ctx, def.ID, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", a.Status)
	assert.NotEmpty(t, a.ID)

	_, err = store.NewAttempt(ctx, "missing", "learner-1")
	assert.Error(t, err)

	// p1_001 answers with i=1 -> key is ChoiceIDs[1] = B; p5_001 same
	a, err = store.SaveAnswers(ctx, a.ID, []Answer{
		{ItemID: "p1_001", Choice: ChoiceB, Correct: true},
		{ItemID: "p5_001", Choice: ChoiceA, Correct: false},
	})
	require.NoError(t, err)
	assert.Len(t, a.Answers, 2)

	// re-saving the same item overwrites instead of appending
	a, err = store.SaveAnswers(ctx, a.ID, []Answer{
		{ItemID: "p5_001", Choice: ChoiceB, Correct: true},
	})
	require.NoError(t, err)
	assert.Len(t, a.Answers, 2)

	a, err = store.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", a.Status)
	assert.Equal(t, 1, a.ListeningCorrect)
	assert.Equal(t, 1, a.ReadingCorrect)

	// submit is idempotent
	again, err := store.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ListeningCorrect, again.ListeningCorrect)

	// locked after submit
	_, err = store.SaveAnswers(ctx, a.ID, []Answer{{ItemID: "p1_002", Choice: ChoiceA}})
	assert.Error(t, err)
}

func TestMemoryStore_ListAttemptsFilters(t *testing.T) {
	ctx := context.Background()
	store, def := seedStore(t)

	a1, err := store.NewAttempt(ctx, def.ID, "u1")
	require.NoError(t, err)
	_, err = store.NewAttempt(ctx, def.ID, "u2")
	require.NoError(t, err)
	_, err = store.Submit(ctx, a1.ID)
	require.NoError(t, err)

	byUser, err := store.ListAttempts(ctx, AttemptListOpts{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, a1.ID, byUser[0].ID)

	open, err := store.ListAttempts(ctx, AttemptListOpts{Status: "in_progress"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "u2", open[0].UserID)

	all, err := store.ListAttempts(ctx, AttemptListOpts{TestID: def.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestScoreAttempt_IgnoresClientFlagAndOutOfScopeAnswers(t *testing.T) {
	def, items := attemptFixture()

	att := Attempt{Answers: []Answer{
		// correct answer, lying flag: still counts
		{ItemID: "p1_001", Choice: ChoiceB, Correct: false},
		// out of scope: ignored
		{ItemID: "zz_001", Choice: ChoiceB, Correct: true},
	}}
	l, r := ScoreAttempt(att, def, items)
	assert.Equal(t, 1, l)
	assert.Equal(t, 0, r)
}
