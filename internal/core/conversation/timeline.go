package conversation

import "sort"

// Merge combines the historical message set with the live event set into one
// chronologically ordered, deduplicated sequence. It is recomputed from
// scratch on every change to either input; correctness depends only on
// created_at values, never on arrival order, which is what makes applying a
// stale history page after newer live events harmless.
//
// Ordering: ascending created_at, ties broken by stable insertion order
// (history before live). Duplicate ids keep the first occurrence after the
// sort; see mergeDuplicate for the one exception.
func Merge(history, live []Message) []Message {
	if len(history) == 0 && len(live) == 0 {
		return nil
	}

	all := make([]Message, 0, len(history)+len(live))
	all = append(all, history...)
	all = append(all, live...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	seen := make(map[string]int, len(all))
	out := all[:0]
	for _, m := range all {
		if at, ok := seen[m.ID]; ok {
			out[at] = mergeDuplicate(out[at], m)
			continue
		}
		seen[m.ID] = len(out)
		out = append(out, m)
	}
	return out
}

// mergeDuplicate resolves two representations of the same message id. The
// earlier-sorted copy wins, with one carve-out: when both copies carry the
// same timestamp and only the later one reports answered, the later one wins.
// A live answered:true delivery must not be shadowed by a stale history row.
func mergeDuplicate(kept, dup Message) Message {
	if !dup.CreatedAt.Equal(kept.CreatedAt) {
		return kept
	}
	keptAnswered := kept.Data != nil && kept.Data.Answered
	dupAnswered := dup.Data != nil && dup.Data.Answered
	if dupAnswered && !keptAnswered {
		return dup
	}
	return kept
}
