package quiz

import "strings"

// Grade reports whether selected answers q. Multiple-choice questions need the
// exact answer set; single-choice questions accept any member of the stored
// set, which tolerates legacy rows carrying more than one answer.
func Grade(q Question, selected []string) bool {
	picked := normalizeSelection(selected)
	if len(picked) == 0 {
		return false
	}
	if !q.MultipleChoice {
		if len(picked) != 1 {
			return false
		}
		for _, a := range q.CorrectAnswers {
			if a == picked[0] {
				return true
			}
		}
		return false
	}

	want := distinct(q.CorrectAnswers)
	if len(want) != len(picked) {
		return false
	}
	set := make(map[string]struct{}, len(want))
	for _, a := range want {
		set[a] = struct{}{}
	}
	for _, p := range picked {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

// normalizeSelection drops blank entries and duplicates.
func normalizeSelection(selected []string) []string {
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return distinct(out)
}
