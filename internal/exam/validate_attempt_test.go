package exam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attemptFixture() (TestDef, map[string]Item) {
	items := map[string]Item{
		"p1_001": {
			ID:   "p1_001",
			Part: Part1,
			Choices: []Choice{
				{ID: ChoiceA}, {ID: ChoiceB}, {ID: ChoiceC}, {ID: ChoiceD},
			},
			Answer: ChoiceB,
		},
	}
	total := 1
	def := TestDef{
		ID: "mini-1",
		Sections: []Section{{
			Name:        SectionListening,
			DurationMin: 5,
			Parts:       map[PartKey][]string{Part1: {"p1_001"}},
		}},
		TotalDurationMin: 5,
		TotalQuestions:   &total,
	}
	return def, items
}

func TestValidateAttempt(t *testing.T) {
	neg := -5.0
	ok := 12.5

	tests := []struct {
		name    string
		answers []Answer
		want    []string
	}{
		{
			name:    "correct answer with matching flag",
			answers: []Answer{{ItemID: "p1_001", Choice: ChoiceB, Correct: true}},
			want:    nil,
		},
		{
			name:    "correct flag contradicts answer key",
			answers: []Answer{{ItemID: "p1_001", Choice: ChoiceB, Correct: false}},
			want:    []string{"item p1_001: correct flag false does not match answer key B"},
		},
		{
			name:    "illegal choice skips correctness check",
			answers: []Answer{{ItemID: "p1_001", Choice: ChoiceID("E"), Correct: false}},
			want:    []string{"item p1_001: invalid choice E"},
		},
		{
			name:    "negative timing",
			answers: []Answer{{ItemID: "p1_001", Choice: ChoiceB, Correct: true, TimeSec: &neg}},
			want:    []string{"item p1_001: invalid time_sec -5"},
		},
		{
			name:    "valid timing",
			answers: []Answer{{ItemID: "p1_001", Choice: ChoiceB, Correct: true, TimeSec: &ok}},
			want:    nil,
		},
		{
			name:    "answer outside test scope",
			answers: []Answer{{ItemID: "p9_999", Choice: ChoiceA, Correct: false}},
			want:    []string{"item p9_999 is not part of this test"},
		},
		{
			name:    "wrong answer with honest flag",
			answers: []Answer{{ItemID: "p1_001", Choice: ChoiceC, Correct: false}},
			want:    nil,
		},
	}

	def, items := attemptFixture()
	v := NewValidator()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			att := Attempt{ID: "a1", TestID: def.ID, Answers: tc.answers}
			got := v.ValidateAttempt(att, def, items)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateAttempt_ItemMissingFromLookup(t *testing.T) {
	def, items := attemptFixture()
	delete(items, "p1_001")

	v := NewValidator()
	att := Attempt{Answers: []Answer{{ItemID: "p1_001", Choice: ChoiceB, Correct: true}}}
	got := v.ValidateAttempt(att, def, items)

	require.Len(t, got, 1)
	assert.Equal(t, "item p1_001 not found", got[0])
}

func TestValidateAttempt_CollectsDefectsAcrossAnswers(t *testing.T) {
	def, items := attemptFixture()
	neg := -1.0

	att := Attempt{Answers: []Answer{
		{ItemID: "p9_999", Choice: ChoiceA},
		{ItemID: "p1_001", Choice: ChoiceID("Z")},
		{ItemID: "p1_001", Choice: ChoiceB, Correct: true, TimeSec: &neg},
	}}
	got := NewValidator().ValidateAttempt(att, def, items)

	require.Len(t, got, 3)
	joined := strings.Join(got, "\n")
	assert.Contains(t, joined, "not part of this test")
	assert.Contains(t, joined, "invalid choice Z")
	assert.Contains(t, joined, "invalid time_sec")
}
