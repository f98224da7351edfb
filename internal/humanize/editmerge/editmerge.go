// Package editmerge reconciles overlapping candidate edits from critic and
// referee stages into a single rewritten text. Pure computation, no I/O.
package editmerge

import "sort"

// Edit is one span replacement proposed by a stage. Source identifies the
// proposing stage ("critic1", "critic2", "referee").
type Edit struct {
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Replacement string  `json:"replacement"`
	Score       float64 `json:"score"`
	Source      string  `json:"source"`
}

// Result is the merge outcome. Conflicts holds edits that were invalid or
// lost an overlap to a higher-scored edit; they are reported, never applied.
type Result struct {
	MergedText   string `json:"merged_text"`
	AppliedEdits []Edit `json:"applied_edits"`
	Conflicts    []Edit `json:"conflicts"`
}

// Merge validates, de-conflicts, and applies edits to text.
//
// Invalid edits (start<0, end>len(text), start>end) go straight to conflicts.
// Overlaps resolve by score: edits are considered highest score first, and an
// edit is kept only when it is disjoint from every edit already kept, so the
// applied set is pairwise disjoint. Application splices from the end of the
// string toward the beginning so earlier offsets stay valid.
func Merge(text string, edits []Edit) Result {
	res := Result{MergedText: text}

	valid := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.Start < 0 || e.End > len(text) || e.Start > e.End {
			res.Conflicts = append(res.Conflicts, e)
			continue
		}
		valid = append(valid, e)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Score > valid[j].Score
	})

	kept := make([]Edit, 0, len(valid))
	for _, e := range valid {
		conflicted := false
		for _, k := range kept {
			if overlaps(e, k) {
				conflicted = true
				break
			}
		}
		if conflicted {
			res.Conflicts = append(res.Conflicts, e)
			continue
		}
		kept = append(kept, e)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start > kept[j].Start
	})

	merged := text
	for _, e := range kept {
		merged = merged[:e.Start] + e.Replacement + merged[e.End:]
		res.AppliedEdits = append(res.AppliedEdits, e)
	}
	res.MergedText = merged
	return res
}

func overlaps(a, b Edit) bool {
	return a.Start < b.End && b.Start < a.End
}
