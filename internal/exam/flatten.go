package exam

import "sort"

// ItemRef is one (section, part, item id) listing inside a TestDef.
type ItemRef struct {
	Section SectionKind
	Part    PartKey
	ItemID  string
}

var partOrder = []PartKey{Part1, Part2, Part3, Part4, Part5, Part6, Part7}

// ItemRefs flattens sections -> parts -> item ids, preserving section order
// and canonical part order. Parts maps iterate in canonical order first so two
// calls over the same TestDef produce the same listing; unknown part keys (a
// defect on their own) follow in sorted order. Duplicated ids are preserved.
func ItemRefs(def TestDef) []ItemRef {
	out := make([]ItemRef, 0, 64)
	for _, s := range def.Sections {
		for _, part := range sectionParts(s) {
			for _, id := range s.Parts[part] {
				out = append(out, ItemRef{Section: s.Name, Part: part, ItemID: id})
			}
		}
	}
	return out
}

// ItemScope returns the set of item ids referenced anywhere in the TestDef.
func ItemScope(def TestDef) map[string]struct{} {
	scope := map[string]struct{}{}
	for _, ref := range ItemRefs(def) {
		scope[ref.ItemID] = struct{}{}
	}
	return scope
}

// sectionParts returns the section's part keys in a stable order.
func sectionParts(s Section) []PartKey {
	keys := make([]PartKey, 0, len(s.Parts))
	for _, p := range partOrder {
		if _, ok := s.Parts[p]; ok {
			keys = append(keys, p)
		}
	}
	var extra []PartKey
	for p := range s.Parts {
		if !isCanonicalPart(p) {
			extra = append(extra, p)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

func isCanonicalPart(p PartKey) bool {
	for _, k := range partOrder {
		if k == p {
			return true
		}
	}
	return false
}
