package exam

import (
	"fmt"
	"math"
)

// ValidateAttempt checks a learner's submitted answers against the TestDef
// they were taken for (scope only) and the item lookup. Same accumulation
// philosophy as ValidateTest: every defective answer is reported, none aborts
// the run. The TestDef is assumed to have passed structural validation.
func (v Validator) ValidateAttempt(att Attempt, def TestDef, items map[string]Item) []string {
	var defects []string
	scope := ItemScope(def)

	for _, a := range att.Answers {
		if _, ok := scope[a.ItemID]; !ok {
			defects = append(defects, fmt.Sprintf("item %s is not part of this test", a.ItemID))
			continue
		}

		it, ok := items[a.ItemID]
		if !ok {
			defects = append(defects, fmt.Sprintf("item %s not found", a.ItemID))
			continue
		}

		legal := false
		for _, c := range it.Choices {
			if c.ID == a.Choice {
				legal = true
				break
			}
		}
		if !legal {
			// no ground truth to compare an illegal choice against, so the
			// correctness check is skipped for this answer
			defects = append(defects, fmt.Sprintf("item %s: invalid choice %s", a.ItemID, a.Choice))
		} else if a.Correct != (a.Choice == it.Answer) {
			defects = append(defects,
				fmt.Sprintf("item %s: correct flag %t does not match answer key %s", a.ItemID, a.Correct, it.Answer))
		}

		if a.TimeSec != nil {
			t := *a.TimeSec
			if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
				defects = append(defects, fmt.Sprintf("item %s: invalid time_sec %v", a.ItemID, t))
			}
		}
	}

	return defects
}
