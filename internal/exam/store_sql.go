package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SQLStore persists the content model in SQL with the hierarchical payloads as
// JSON columns. Works against sqlite (modernc) and postgres (pgx stdlib).
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutTest(ctx context.Context, def TestDef) error {
	sj, err := json.Marshal(def.Sections)
	if err != nil {
		return err
	}
	var tq sql.NullInt64
	if def.TotalQuestions != nil {
		tq = sql.NullInt64{Int64: int64(*def.TotalQuestions), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,title,sections_json,total_duration_min,total_questions,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, sections_json=EXCLUDED.sections_json,
			total_duration_min=EXCLUDED.total_duration_min, total_questions=EXCLUDED.total_questions`,
		def.ID, def.Title, string(sj), def.TotalDurationMin, tq, time.Now().Unix())
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (TestDef, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,sections_json,total_duration_min,total_questions,created_at FROM tests WHERE id=$1`, id)
	var def TestDef
	var sj string
	var tq sql.NullInt64
	if err := row.Scan(&def.ID, &def.Title, &sj, &def.TotalDurationMin, &tq, &def.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestDef{}, errors.New("test not found")
		}
		return TestDef{}, err
	}
	if err := json.Unmarshal([]byte(sj), &def.Sections); err != nil {
		return TestDef{}, err
	}
	if tq.Valid {
		n := int(tq.Int64)
		def.TotalQuestions = &n
	}
	return def, nil
}

func (s *SQLStore) ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,total_duration_min,total_questions,created_at
		FROM tests WHERE ($1 = '' OR title LIKE '%' || $1 || '%')
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, opts.Q, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestSummary{}
	for rows.Next() {
		var ts TestSummary
		var tq sql.NullInt64
		if err := rows.Scan(&ts.ID, &ts.Title, &ts.TotalDuration, &tq, &ts.CreatedAt); err != nil {
			return nil, err
		}
		if tq.Valid {
			ts.Questions = int(tq.Int64)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutItems(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, it := range items {
		buf, err := json.Marshal(it)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO items (id,part,payload_json)
			VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET part=EXCLUDED.part, payload_json=EXCLUDED.payload_json`,
			it.ID, string(it.Part), string(buf)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetItems(ctx context.Context, ids []string) (map[string]Item, error) {
	out := make(map[string]Item, len(ids))
	for _, id := range ids {
		var buf string
		err := s.db.QueryRowContext(ctx, `SELECT payload_json FROM items WHERE id=$1`, id).Scan(&buf)
		if errors.Is(err, sql.ErrNoRows) {
			continue // absent ids surface as validator defects, not store errors
		}
		if err != nil {
			return nil, err
		}
		var it Item
		if err := json.Unmarshal([]byte(buf), &it); err != nil {
			return nil, err
		}
		out[id] = it
	}
	return out, nil
}

func (s *SQLStore) PutStimuli(ctx context.Context, stimuli []Stimulus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, st := range stimuli {
		buf, err := json.Marshal(st)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO stimuli (id,part,payload_json)
			VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET part=EXCLUDED.part, payload_json=EXCLUDED.payload_json`,
			st.ID, string(st.Part), string(buf)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetStimuli(ctx context.Context, ids []string) (map[string]Stimulus, error) {
	out := make(map[string]Stimulus, len(ids))
	for _, id := range ids {
		var buf string
		err := s.db.QueryRowContext(ctx, `SELECT payload_json FROM stimuli WHERE id=$1`, id).Scan(&buf)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var st Stimulus
		if err := json.Unmarshal([]byte(buf), &st); err != nil {
			return nil, err
		}
		out[id] = st
	}
	return out, nil
}

func (s *SQLStore) NewAttempt(ctx context.Context, testID, userID string) (Attempt, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tests WHERE id=$1`, testID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, errors.New("test not found")
		}
		return Attempt{}, err
	}
	a := Attempt{
		ID:        uuid.NewString(),
		TestID:    testID,
		UserID:    userID,
		Status:    "in_progress",
		StartedAt: time.Now().Unix(),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,test_id,user_id,status,listening_correct,reading_correct,answers_json,started_at)
		VALUES ($1,$2,$3,'in_progress',0,0,'[]',$4)`,
		a.ID, a.TestID, a.UserID, a.StartedAt)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SaveAnswers(ctx context.Context, attemptID string, answers []Answer) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == "submitted" {
		return Attempt{}, errors.New("attempt already submitted")
	}
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
	buf, _ := json.Marshal(a.Answers)
	if _, err := s.db.ExecContext(ctx, `UPDATE attempts SET answers_json=$1 WHERE id=$2`, string(buf), attemptID); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *SQLStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == "submitted" {
		return a, nil
	}

	def, err := s.GetTest(ctx, a.TestID)
	if err != nil {
		return Attempt{}, err
	}
	ids := make([]string, 0, 64)
	for id := range ItemScope(def) {
		ids = append(ids, id)
	}
	items, err := s.GetItems(ctx, ids)
	if err != nil {
		return Attempt{}, err
	}

	a.ListeningCorrect, a.ReadingCorrect = ScoreAttempt(a, def, items)
	a.Status = "submitted"
	a.SubmittedAt = time.Now().Unix()
	buf, _ := json.Marshal(a.Answers)
	_, err = s.db.ExecContext(ctx, `UPDATE attempts SET status='submitted', listening_correct=$1,
		reading_correct=$2, answers_json=$3, submitted_at=$4 WHERE id=$5`,
		a.ListeningCorrect, a.ReadingCorrect, string(buf), a.SubmittedAt, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,test_id,user_id,status,listening_correct,reading_correct,
		answers_json,started_at,submitted_at FROM attempts WHERE id=$1`, id)
	var a Attempt
	var aj string
	var submitted sql.NullInt64
	if err := row.Scan(&a.ID, &a.TestID, &a.UserID, &a.Status, &a.ListeningCorrect, &a.ReadingCorrect,
		&aj, &a.StartedAt, &submitted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, errors.New("attempt not found")
		}
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
		return Attempt{}, err
	}
	if submitted.Valid {
		a.SubmittedAt = submitted.Int64
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,test_id,user_id,status,listening_correct,reading_correct,
		answers_json,started_at,submitted_at FROM attempts
		WHERE ($1 = '' OR test_id = $1) AND ($2 = '' OR user_id = $2) AND ($3 = '' OR status = $3)
		ORDER BY started_at DESC LIMIT $4 OFFSET $5`,
		opts.TestID, opts.UserID, opts.Status, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var aj string
		var submitted sql.NullInt64
		if err := rows.Scan(&a.ID, &a.TestID, &a.UserID, &a.Status, &a.ListeningCorrect, &a.ReadingCorrect,
			&aj, &a.StartedAt, &submitted); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
			return nil, err
		}
		if submitted.Valid {
			a.SubmittedAt = submitted.Int64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
