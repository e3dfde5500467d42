package exam

// ScoreAttempt recomputes raw per-section correct counts for a submitted
// attempt. The client-supplied Correct flag is ignored; the answer key is the
// ground truth. Answers outside the test's scope or with unknown items score
// nothing (the attempt validator flags those separately).
func ScoreAttempt(att Attempt, def TestDef, items map[string]Item) (listening, reading int) {
	kindByItem := map[string]SectionKind{}
	for _, ref := range ItemRefs(def) {
		kindByItem[ref.ItemID] = ref.Section
	}

	for _, a := range att.Answers {
		kind, ok := kindByItem[a.ItemID]
		if !ok {
			continue
		}
		it, ok := items[a.ItemID]
		if !ok || a.Choice != it.Answer {
			continue
		}
		switch kind {
		case SectionListening:
			listening++
		case SectionReading:
			reading++
		}
	}
	return listening, reading
}
