package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/exam-pulse/exampulse/internal/audit"
	"github.com/exam-pulse/exampulse/internal/exam"
)

// defectsResponse is the 422 body for rejected saves/submissions. Defects are
// plain strings intended for direct display to content authors.
type defectsResponse struct {
	Defects []string `json:"defects"`
}

// validatorFor builds a validator from the named preset plus per-request
// enforce overrides (enforce_part_counts=false etc. for variant papers).
func validatorFor(r *http.Request, presets map[string]exam.Preset) (exam.Validator, bool) {
	name := r.URL.Query().Get("preset")
	if name == "" {
		name = "toeic"
	}
	p, ok := presets[name]
	if !ok {
		return exam.Validator{}, false
	}
	q := r.URL.Query()
	enf := p.Enforce
	enf.PartCounts = parseBoolDefault(q.Get("enforce_part_counts"), enf.PartCounts)
	enf.TotalDuration = parseBoolDefault(q.Get("enforce_total_duration"), enf.TotalDuration)
	enf.SectionDurations = parseBoolDefault(q.Get("enforce_section_durations"), enf.SectionDurations)
	enf.TotalQuestions = parseBoolDefault(q.Get("enforce_total_questions"), enf.TotalQuestions)
	return exam.Validator{Policy: p.Policy, Enforce: enf}, true
}

// POST /tests?preset=toeic
// Upserts a TestDef. The document must pass structural validation under the
// selected preset; otherwise the full defect list comes back with 422.
func PublishTestHandler(store exam.Store, presets map[string]exam.Preset, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var def exam.TestDef
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(def.ID) == "" {
			http.Error(w, "test id required", http.StatusBadRequest)
			return
		}
		v, ok := validatorFor(r, presets)
		if !ok {
			http.Error(w, "unknown preset", http.StatusBadRequest)
			return
		}

		items, stimuli, err := exam.Lookups(r.Context(), store, def)
		if err != nil {
			http.Error(w, "lookups: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if defects := v.ValidateTest(def, items, stimuli); len(defects) > 0 {
			if events != nil {
				_ = events.Append(r.Context(), audit.TestRejected, def.ID, defects)
			}
			writeJSON(w, http.StatusUnprocessableEntity, defectsResponse{Defects: defects})
			return
		}

		if err := store.PutTest(r.Context(), def); err != nil {
			http.Error(w, "save test: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if events != nil {
			_ = events.Append(r.Context(), audit.TestPublished, def.ID, nil)
		}
		writeJSON(w, http.StatusCreated, def)
	}
}

// POST /tests/{testID}/validate?preset=placement
// Dry run: validates a stored TestDef and returns the defect list without
// touching it. 200 with an empty list means valid under the given flags.
func ValidateTestHandler(store exam.Store, presets map[string]exam.Preset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		def, err := store.GetTest(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		v, ok := validatorFor(r, presets)
		if !ok {
			http.Error(w, "unknown preset", http.StatusBadRequest)
			return
		}
		items, stimuli, err := exam.Lookups(r.Context(), store, def)
		if err != nil {
			http.Error(w, "lookups: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defects := v.ValidateTest(def, items, stimuli)
		if defects == nil {
			defects = []string{}
		}
		writeJSON(w, http.StatusOK, defectsResponse{Defects: defects})
	}
}

// GET /tests/{testID}
func GetTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := store.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, def)
	}
}

// GET /tests?q=&limit=&offset=
func ListTestsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListTests(r.Context(), exam.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
