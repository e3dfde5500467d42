package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/exam-pulse/exampulse/internal/audit"
	authmw "github.com/exam-pulse/exampulse/internal/auth/middleware"
	"github.com/exam-pulse/exampulse/internal/exam"
	"github.com/exam-pulse/exampulse/internal/rbac"
)

// POST /attempts  { "test_id": "..." }
func CreateAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID string `json:"test_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		a, err := store.NewAttempt(r.Context(), req.TestID, userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// POST /attempts/{attemptID}/answers  { "answers": [...] }
func SaveAnswersHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := strings.TrimSpace(chi.URLParam(r, "attemptID"))
		var req struct {
			Answers []exam.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.SaveAnswers(r.Context(), attemptID, req.Answers)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/submit
// Validates the submitted answers against the test's item scope and answer
// keys; a non-empty defect list rejects the submission with 422. A clean
// attempt is graded (raw per-section counts) and locked.
func SubmitAttemptHandler(store exam.Store, presets map[string]exam.Preset, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := strings.TrimSpace(chi.URLParam(r, "attemptID"))
		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		def, err := store.GetTest(r.Context(), a.TestID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		v, ok := validatorFor(r, presets)
		if !ok {
			http.Error(w, "unknown preset", http.StatusBadRequest)
			return
		}
		items, _, err := exam.Lookups(r.Context(), store, def)
		if err != nil {
			http.Error(w, "lookups: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if defects := v.ValidateAttempt(a, def, items); len(defects) > 0 {
			if events != nil {
				_ = events.Append(r.Context(), audit.AttemptRejected, attemptID, defects)
			}
			writeJSON(w, http.StatusUnprocessableEntity, defectsResponse{Defects: defects})
			return
		}

		a, err = store.Submit(r.Context(), attemptID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if events != nil {
			_ = events.Append(r.Context(), audit.AttemptSubmitted, attemptID, map[string]int{
				"listening_correct": a.ListeningCorrect,
				"reading_correct":   a.ReadingCorrect,
			})
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}
// Learners may only read their own attempts.
func GetAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role == "learner" && a.UserID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts?test_id=&user_id=&status=&limit=&offset=
func ListAttemptsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := exam.AttemptListOpts{
			TestID: q.Get("test_id"),
			UserID: q.Get("user_id"),
			Status: q.Get("status"),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		// learners are pinned to their own attempts regardless of filters
		if rbac.RoleFromContext(r.Context()) == "learner" {
			opts.UserID = authmw.SubjectFromContext(r.Context())
		}
		list, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
