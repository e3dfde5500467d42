package exam

// SectionKind is one of the two section families of a TOEIC-shaped paper.
type SectionKind string

const (
	SectionListening SectionKind = "Listening"
	SectionReading   SectionKind = "Reading"
)

// PartKey is one of the seven canonical question categories. Parts 1-4 live in
// the listening section, parts 5-7 in the reading section.
type PartKey string

const (
	Part1 PartKey = "part.1"
	Part2 PartKey = "part.2"
	Part3 PartKey = "part.3"
	Part4 PartKey = "part.4"
	Part5 PartKey = "part.5"
	Part6 PartKey = "part.6"
	Part7 PartKey = "part.7"
)

// ChoiceID is one of the four canonical answer letters.
type ChoiceID string

const (
	ChoiceA ChoiceID = "A"
	ChoiceB ChoiceID = "B"
	ChoiceC ChoiceID = "C"
	ChoiceD ChoiceID = "D"
)

// ChoiceIDs lists the canonical letters in display order.
var ChoiceIDs = []ChoiceID{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

type Choice struct {
	ID ChoiceID `json:"id"`
	// Text is empty for spoken-only choices (part.2 has no printed options).
	Text string `json:"text,omitempty"`
}

// Item is a single gradable question. StimulusID is set when the item shares
// prompt media (photo, recording, passage) with sibling items.
type Item struct {
	ID         string   `json:"id"`
	Part       PartKey  `json:"part"`
	StimulusID string   `json:"stimulus_id,omitempty"`
	StemHTML   string   `json:"stem_html,omitempty"`
	Choices    []Choice `json:"choices"`
	Answer     ChoiceID `json:"answer"`
}

// Stimulus is shared prompt content referenced by zero or more items. Media
// fields are blob-store keys served via /assets.
type Stimulus struct {
	ID          string  `json:"id"`
	Part        PartKey `json:"part"`
	ImageKey    string  `json:"image_key,omitempty"`
	AudioKey    string  `json:"audio_key,omitempty"`
	Script      string  `json:"script,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

// Section groups parts of one kind. Parts maps a part key to the ordered item
// ids delivered under it; items are stored separately and joined by id.
type Section struct {
	Name        SectionKind          `json:"name"`
	DurationMin int                  `json:"duration_min"`
	Parts       map[PartKey][]string `json:"parts"`
}

// TestDef is a full paper definition. TotalQuestions is a pointer so an
// authoring payload that omitted the field is distinguishable from zero.
type TestDef struct {
	ID               string    `json:"id"`
	Title            string    `json:"title,omitempty"`
	Sections         []Section `json:"sections"`
	TotalDurationMin int       `json:"total_duration_min"`
	TotalQuestions   *int      `json:"total_questions"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// Answer is one submitted response. Correct is the client-computed flag and is
// cross-checked against the answer key at validation time. TimeSec is optional
// per-question timing telemetry.
type Answer struct {
	ItemID  string   `json:"item_id"`
	Choice  ChoiceID `json:"choice"`
	Correct bool     `json:"correct"`
	TimeSec *float64 `json:"time_sec,omitempty"`
}

type Attempt struct {
	ID      string   `json:"id"`
	TestID  string   `json:"test_id"`
	UserID  string   `json:"user_id"`
	Status  string   `json:"status"` // in_progress|submitted
	Answers []Answer `json:"answers"`

	// Raw per-section correct counts, filled at submit. Scaled-score
	// estimation happens downstream, not here.
	ListeningCorrect int `json:"listening_correct"`
	ReadingCorrect   int `json:"reading_correct"`

	StartedAt   int64 `json:"started_at,omitempty"`
	SubmittedAt int64 `json:"submitted_at,omitempty"`
}

// TestSummary is the list-view projection of a TestDef.
type TestSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	TotalDuration int    `json:"total_duration_min"`
	Questions     int    `json:"total_questions"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}
