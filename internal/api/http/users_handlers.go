package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`               // learner|editor|admin
	Password string `json:"password,omitempty"` // plaintext in, bcrypt in the DB
}

// POST /users/bulk — admin-only roster load.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "expected JSON array", http.StatusBadRequest)
			return
		}
		inserted := 0
		for _, row := range rows {
			username := strings.TrimSpace(row.Username)
			if username == "" || row.Password == "" {
				http.Error(w, "every user needs username and password", http.StatusBadRequest)
				return
			}
			role := row.Role
			if role == "" {
				role = "learner"
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(row.Password), 12)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			id := row.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err = db.ExecContext(r.Context(), `INSERT INTO users (id,username,role,pass_hash)
				VALUES ($1,$2,$3,$4)
				ON CONFLICT (username) DO UPDATE SET role=EXCLUDED.role, pass_hash=EXCLUDED.pass_hash`,
				id, username, role, string(hash))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			inserted++
		}
		writeJSON(w, http.StatusOK, map[string]int{"upserted": inserted})
	}
}

// GET /users?role=
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []map[string]string{}
		for rows.Next() {
			var id, username, role string
			if err := rows.Scan(&id, &username, &role); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, map[string]string{"id": id, "username": username, "role": role})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
