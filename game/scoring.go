package game

// Tally counts the votes each player received.
func Tally(votes map[string]string) map[string]int {
	tally := make(map[string]int, len(votes))
	for _, target := range votes {
		tally[target]++
	}
	return tally
}

// Winners returns the round winner: the one player with strictly the most
// votes. Any tie for the top, the full tie included, yields no winner.
func Winners(tally map[string]int) []string {
	best, bestCount, tied := "", 0, false
	for _, id := range sortedKeys(tally) {
		switch count := tally[id]; {
		case count > bestCount:
			best, bestCount, tied = id, count, false
		case count == bestCount:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return nil
	}
	return []string{best}
}
