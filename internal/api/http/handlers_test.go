package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exam-pulse/exampulse/internal/exam"
)

func testRouter(store exam.Store) *chi.Mux {
	presets := exam.BuiltinPresets()
	r := chi.NewRouter()
	r.Post("/tests", PublishTestHandler(store, presets, nil))
	r.Post("/tests/{testID}/validate", ValidateTestHandler(store, presets))
	r.Get("/tests/{testID}", GetTestHandler(store))
	r.Get("/tests", ListTestsHandler(store))
	r.Post("/items/bulk", BulkUpsertItemsHandler(store))
	r.Post("/attempts", CreateAttemptHandler(store))
	r.Post("/attempts/{attemptID}/answers", SaveAnswersHandler(store))
	r.Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(store, presets, nil))
	return r
}

// placementPaper returns a small internally-consistent paper plus its items.
func placementPaper(n int) (exam.TestDef, []exam.Item) {
	items := make([]exam.Item, 0, n)
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("pl_%03d", i)
		items = append(items, exam.Item{
			ID:   id,
			Part: exam.Part2,
			Choices: []exam.Choice{
				{ID: exam.ChoiceA}, {ID: exam.ChoiceB}, {ID: exam.ChoiceC}, {ID: exam.ChoiceD},
			},
			Answer: exam.ChoiceA,
		})
		ids = append(ids, id)
	}
	def := exam.TestDef{
		ID: "placement-1",
		Sections: []exam.Section{{
			Name:        exam.SectionListening,
			DurationMin: 35,
			Parts:       map[exam.PartKey][]string{exam.Part2: ids},
		}},
		TotalDurationMin: 35,
		TotalQuestions:   &n,
	}
	return def, items
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublishTest_RejectsDefectivePaper(t *testing.T) {
	store := exam.NewInMemoryStore()
	r := testRouter(store)

	def, items := placementPaper(55)
	w := doJSON(t, r, http.MethodPost, "/items/bulk", items)
	require.Equal(t, http.StatusOK, w.Code)

	// strict toeic preset: a 55-question paper has plenty of defects
	w = doJSON(t, r, http.MethodPost, "/tests", def)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Defects []string `json:"defects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Defects)

	// nothing was saved
	_, err := store.GetTest(context.Background(), def.ID)
	assert.Error(t, err)
}

func TestPublishTest_PlacementPresetAccepts(t *testing.T) {
	store := exam.NewInMemoryStore()
	r := testRouter(store)

	def, items := placementPaper(55)
	w := doJSON(t, r, http.MethodPost, "/items/bulk", items)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/tests?preset=placement", def)
	require.Equal(t, http.StatusCreated, w.Code)

	got, err := store.GetTest(context.Background(), def.ID)
	require.NoError(t, err)
	assert.Equal(t, def.ID, got.ID)
}

func TestPublishTest_UnknownPreset(t *testing.T) {
	store := exam.NewInMemoryStore()
	r := testRouter(store)
	def, _ := placementPaper(5)
	w := doJSON(t, r, http.MethodPost, "/tests?preset=bogus", def)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateTest_DryRunWithEnforceOverrides(t *testing.T) {
	store := exam.NewInMemoryStore()
	r := testRouter(store)

	def, items := placementPaper(55)
	doJSON(t, r, http.MethodPost, "/items/bulk", items)
	w := doJSON(t, r, http.MethodPost, "/tests?preset=placement", def)
	require.Equal(t, http.StatusCreated, w.Code)

	// strict run over the stored paper reports defects but stores nothing
	w = doJSON(t, r, http.MethodPost, "/tests/placement-1/validate?preset=toeic", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var strict struct {
		Defects []string `json:"defects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &strict))
	assert.NotEmpty(t, strict.Defects)

	// same preset with every canonical rule switched off is clean
	w = doJSON(t, r, http.MethodPost,
		"/tests/placement-1/validate?preset=toeic&enforce_part_counts=false&enforce_total_duration=false&enforce_section_durations=false&enforce_total_questions=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var relaxed struct {
		Defects []string `json:"defects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &relaxed))
	assert.Empty(t, relaxed.Defects)
}

func TestSubmitAttempt_FlowAndRejection(t *testing.T) {
	store := exam.NewInMemoryStore()
	r := testRouter(store)

	def, items := placementPaper(3)
	doJSON(t, r, http.MethodPost, "/items/bulk", items)
	w := doJSON(t, r, http.MethodPost, "/tests?preset=placement", def)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/attempts", map[string]string{"test_id": def.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var att exam.Attempt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &att))

	// tampered correct flag -> rejected with the defect spelled out
	w = doJSON(t, r, http.MethodPost, "/attempts/"+att.ID+"/answers", map[string]any{
		"answers": []exam.Answer{{ItemID: "pl_001", Choice: exam.ChoiceB, Correct: true}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/attempts/"+att.ID+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp struct {
		Defects []string `json:"defects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Defects, 1)
	assert.Contains(t, resp.Defects[0], "correct flag true does not match answer key A")

	// honest answers sail through and get graded
	w = doJSON(t, r, http.MethodPost, "/attempts/"+att.ID+"/answers", map[string]any{
		"answers": []exam.Answer{
			{ItemID: "pl_001", Choice: exam.ChoiceA, Correct: true},
			{ItemID: "pl_002", Choice: exam.ChoiceC, Correct: false},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/attempts/"+att.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var graded exam.Attempt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &graded))
	assert.Equal(t, "submitted", graded.Status)
	assert.Equal(t, 1, graded.ListeningCorrect)
	assert.Equal(t, 0, graded.ReadingCorrect)
}
