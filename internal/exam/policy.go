package exam

// Policy holds the canonical shape of one exam profile: which parts each
// section kind may carry, per-part item counts, and timing totals. It is data,
// not behavior; the validator receives it and a variant paper (placement,
// mini-test) supplies a different one instead of forking logic.
type Policy struct {
	SectionParts       map[SectionKind][]PartKey `json:"section_parts" yaml:"section_parts"`
	PartCounts         map[PartKey]int           `json:"part_counts" yaml:"part_counts"`
	SectionDurationMin map[SectionKind]int       `json:"section_duration_min" yaml:"section_duration_min"`
	TotalDurationMin   int                       `json:"total_duration_min" yaml:"total_duration_min"`
	TotalQuestions     int                       `json:"total_questions" yaml:"total_questions"`
}

// Enforce selects which canonical-exam rules the validator applies. The
// unconditional structural checks (uniqueness, referential integrity, internal
// duration consistency, choice sets) run regardless.
type Enforce struct {
	PartCounts       bool `json:"part_counts" yaml:"part_counts"`
	TotalDuration    bool `json:"total_duration" yaml:"total_duration"`
	SectionDurations bool `json:"section_durations" yaml:"section_durations"`
	TotalQuestions   bool `json:"total_questions" yaml:"total_questions"`
}

// EnforceAll is the default: full canonical-exam strictness.
func EnforceAll() Enforce {
	return Enforce{PartCounts: true, TotalDuration: true, SectionDurations: true, TotalQuestions: true}
}

// EnforceNone relaxes every canonical rule; only the structural checks remain.
func EnforceNone() Enforce { return Enforce{} }

// TOEICPolicy returns the standard 200-question, 120-minute shape.
func TOEICPolicy() Policy {
	return Policy{
		SectionParts: map[SectionKind][]PartKey{
			SectionListening: {Part1, Part2, Part3, Part4},
			SectionReading:   {Part5, Part6, Part7},
		},
		PartCounts: map[PartKey]int{
			Part1: 6,
			Part2: 25,
			Part3: 39,
			Part4: 30,
			Part5: 30,
			Part6: 16,
			Part7: 54,
		},
		SectionDurationMin: map[SectionKind]int{
			SectionListening: 45,
			SectionReading:   75,
		},
		TotalDurationMin: 120,
		TotalQuestions:   200,
	}
}

// allowsPart reports whether the policy permits part p inside a section of
// kind k.
func (p Policy) allowsPart(k SectionKind, part PartKey) bool {
	for _, allowed := range p.SectionParts[k] {
		if allowed == part {
			return true
		}
	}
	return false
}
