package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/exam-pulse/exampulse/internal/exam"
)

// POST /items/bulk  — upsert the item lookup. Items are staged here and only
// judged as a whole when a TestDef referencing them is published.
func BulkUpsertItemsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []exam.Item
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		for _, it := range items {
			if strings.TrimSpace(it.ID) == "" || it.Part == "" {
				http.Error(w, "every item needs id and part", http.StatusBadRequest)
				return
			}
		}
		if err := store.PutItems(r.Context(), items); err != nil {
			http.Error(w, "save items: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"upserted": len(items)})
	}
}

// POST /stimuli/bulk
func BulkUpsertStimuliHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stimuli []exam.Stimulus
		if err := json.NewDecoder(r.Body).Decode(&stimuli); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		for _, st := range stimuli {
			if strings.TrimSpace(st.ID) == "" || st.Part == "" {
				http.Error(w, "every stimulus needs id and part", http.StatusBadRequest)
				return
			}
		}
		if err := store.PutStimuli(r.Context(), stimuli); err != nil {
			http.Error(w, "save stimuli: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"upserted": len(stimuli)})
	}
}
