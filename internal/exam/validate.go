package exam

import (
	"fmt"
	"sort"
	"strings"
)

// Validator checks TestDefs and Attempts against an exam policy. It never
// mutates its inputs and keeps no state, so one value can serve concurrent
// requests. Data-quality problems are accumulated as messages, not returned as
// errors: a single run surfaces every defect so editors fix content in one
// pass.
type Validator struct {
	Policy  Policy
	Enforce Enforce
}

// NewValidator returns a validator with full canonical strictness.
func NewValidator() Validator {
	return Validator{Policy: TOEICPolicy(), Enforce: EnforceAll()}
}

// ValidateTest walks the whole TestDef hierarchy against the item and stimulus
// lookups and returns every structural defect found. An empty result means the
// document is valid under the validator's enforce flags. The lookups are a
// caller-assembled snapshot; results reflect that snapshot.
func (v Validator) ValidateTest(def TestDef, items map[string]Item, stimuli map[string]Stimulus) []string {
	var defects []string

	defects = append(defects, v.checkSectionNames(def)...)
	defects = append(defects, v.checkDurations(def)...)
	defects = append(defects, v.checkPartPlacement(def)...)

	walked, partTally := v.walkItems(def, items, stimuli)
	defects = append(defects, walked...)

	if v.Enforce.PartCounts {
		defects = append(defects, v.checkPartCounts(partTally)...)
	}
	defects = append(defects, v.checkTotalQuestions(def)...)

	return defects
}

// checkSectionNames reports one message listing every duplicated section name.
func (v Validator) checkSectionNames(def TestDef) []string {
	seen := map[SectionKind]int{}
	for _, s := range def.Sections {
		seen[s.Name]++
	}
	var dups []string
	for _, s := range def.Sections {
		if seen[s.Name] > 1 {
			dups = append(dups, string(s.Name))
			seen[s.Name] = 0 // list each duplicated name once
		}
	}
	if len(dups) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("duplicate section names: %s", strings.Join(dups, ", "))}
}

// checkDurations covers the internal consistency rule (total equals the sum of
// sections, always on) and the flag-gated canonical timing rules.
func (v Validator) checkDurations(def TestDef) []string {
	var defects []string

	sum := 0
	for _, s := range def.Sections {
		sum += s.DurationMin
	}
	if def.TotalDurationMin != sum {
		defects = append(defects,
			fmt.Sprintf("total_duration_min %d does not match sum of section durations %d", def.TotalDurationMin, sum))
	}

	if v.Enforce.TotalDuration && def.TotalDurationMin != v.Policy.TotalDurationMin {
		defects = append(defects,
			fmt.Sprintf("total_duration_min must be %d, got %d", v.Policy.TotalDurationMin, def.TotalDurationMin))
	}

	if v.Enforce.SectionDurations {
		byName := map[SectionKind]Section{}
		for _, s := range def.Sections {
			if _, ok := byName[s.Name]; !ok {
				byName[s.Name] = s
			}
		}
		for _, kind := range sortedKinds(v.Policy.SectionDurationMin) {
			want := v.Policy.SectionDurationMin[kind]
			s, ok := byName[kind]
			if !ok {
				defects = append(defects, fmt.Sprintf("missing required section %s", kind))
				continue
			}
			if s.DurationMin != want {
				defects = append(defects,
					fmt.Sprintf("section %s duration must be %d min, got %d", kind, want, s.DurationMin))
			}
		}
	}

	return defects
}

// checkPartPlacement verifies every part key sits in a section of the kind
// that owns it.
func (v Validator) checkPartPlacement(def TestDef) []string {
	var defects []string
	for _, s := range def.Sections {
		for _, part := range sectionParts(s) {
			if !v.Policy.allowsPart(s.Name, part) {
				defects = append(defects, fmt.Sprintf("section %s: part %s not allowed", s.Name, part))
			}
		}
	}
	return defects
}

// walkItems runs the full item-graph pass: global duplicate detection,
// referential integrity against the lookups, part agreement, stimulus
// agreement, and choice-set integrity. It also tallies items per part for the
// count checks.
func (v Validator) walkItems(def TestDef, items map[string]Item, stimuli map[string]Stimulus) ([]string, map[PartKey]int) {
	var defects []string
	tally := map[PartKey]int{}
	seen := map[string]bool{}

	for _, ref := range ItemRefs(def) {
		tally[ref.Part]++

		if seen[ref.ItemID] {
			defects = append(defects,
				fmt.Sprintf("item %s listed more than once (part %s)", ref.ItemID, ref.Part))
			continue
		}
		seen[ref.ItemID] = true

		it, ok := items[ref.ItemID]
		if !ok {
			defects = append(defects, fmt.Sprintf("item %s not found", ref.ItemID))
			continue
		}

		if it.Part != ref.Part {
			defects = append(defects,
				fmt.Sprintf("item %s: part %s listed under %s", ref.ItemID, it.Part, ref.Part))
		}

		if it.StimulusID != "" {
			st, ok := stimuli[it.StimulusID]
			switch {
			case !ok:
				defects = append(defects,
					fmt.Sprintf("item %s: stimulus %s not found", ref.ItemID, it.StimulusID))
			case st.Part != it.Part:
				defects = append(defects,
					fmt.Sprintf("item %s: stimulus %s part %s does not match item part %s",
						ref.ItemID, it.StimulusID, st.Part, it.Part))
			}
		}

		defects = append(defects, checkChoices(it)...)
	}

	return defects, tally
}

// checkChoices verifies the four-letter choice set of one item: no duplicate
// ids, every canonical letter present, answer inside the set.
func checkChoices(it Item) []string {
	var defects []string

	present := map[ChoiceID]bool{}
	for _, c := range it.Choices {
		if present[c.ID] {
			defects = append(defects, fmt.Sprintf("item %s: duplicate choice id %s", it.ID, c.ID))
			continue
		}
		present[c.ID] = true
	}

	for _, letter := range ChoiceIDs {
		if !present[letter] {
			defects = append(defects, fmt.Sprintf("item %s: missing choice %s", it.ID, letter))
		}
	}

	if !present[it.Answer] {
		defects = append(defects,
			fmt.Sprintf("item %s: answer %s is not one of its choices", it.ID, it.Answer))
	}

	return defects
}

// checkPartCounts compares the walked per-part tally with the policy's
// canonical counts.
func (v Validator) checkPartCounts(tally map[PartKey]int) []string {
	var defects []string
	for _, part := range sortedParts(v.Policy.PartCounts) {
		want := v.Policy.PartCounts[part]
		if got := tally[part]; got != want {
			defects = append(defects, fmt.Sprintf("part %s must have %d items, got %d", part, want, got))
		}
	}
	return defects
}

// checkTotalQuestions verifies the declared total against the walked count
// and, when enforced, against the policy constant.
func (v Validator) checkTotalQuestions(def TestDef) []string {
	if def.TotalQuestions == nil {
		return []string{"missing field total_questions"}
	}
	var defects []string
	actual := len(ItemRefs(def))
	if *def.TotalQuestions != actual {
		defects = append(defects,
			fmt.Sprintf("total_questions %d does not match actual item count %d", *def.TotalQuestions, actual))
	}
	if v.Enforce.TotalQuestions && *def.TotalQuestions != v.Policy.TotalQuestions {
		defects = append(defects,
			fmt.Sprintf("total_questions must be %d, got %d", v.Policy.TotalQuestions, *def.TotalQuestions))
	}
	return defects
}

// sortedKinds orders section kinds listening-first for stable diagnostics.
func sortedKinds(m map[SectionKind]int) []SectionKind {
	kinds := make([]SectionKind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kindRank(kinds[i]) < kindRank(kinds[j]) })
	return kinds
}

func kindRank(k SectionKind) string {
	switch k {
	case SectionListening:
		return "0"
	case SectionReading:
		return "1"
	default:
		return "2" + string(k)
	}
}

// sortedParts orders part keys canonically, then lexicographically.
func sortedParts(m map[PartKey]int) []PartKey {
	parts := make([]PartKey, 0, len(m))
	for p := range m {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	return parts
}
