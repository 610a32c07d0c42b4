package domain

import "sort"

// SortRankings orders entries by total score descending, then respondent ascending.
func SortRankings(entries []RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].Respondent < entries[j].Respondent
	})
}

// RankAttempts sums attempts per respondent and returns sorted entries.
func RankAttempts(attempts []Attempt) []RankingEntry {
	totals := make(map[string]int)
	for _, a := range attempts {
		totals[a.Respondent] += a.Score
	}
	entries := make([]RankingEntry, 0, len(totals))
	for respondent, total := range totals {
		entries = append(entries, RankingEntry{Respondent: respondent, TotalScore: total})
	}
	SortRankings(entries)
	return entries
}
