package domain

// PlanAppend computes the memberships to insert when appending questionIDs to
// a test that already holds existing. New entries continue from the highest
// remaining position in the given order; ids already present or repeated in
// the batch are skipped. Gaps left by removals are never compacted.
func PlanAppend(testID int64, existing []Membership, questionIDs []int64) []Membership {
	seen := make(map[int64]struct{}, len(existing)+len(questionIDs))
	next := 0
	for _, m := range existing {
		seen[m.QuestionID] = struct{}{}
		if m.Position > next {
			next = m.Position
		}
	}
	planned := make([]Membership, 0, len(questionIDs))
	for _, id := range questionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next++
		planned = append(planned, Membership{TestID: testID, QuestionID: id, Position: next})
	}
	return planned
}
