package reconcile

import "strconv"

// rankFromLabel parses a directory label name as a rank number. Only names
// made entirely of digits count, and only when the value falls in 1..limit.
// Every call site that decides whether a label is a rank label goes through
// this predicate.
func rankFromLabel(name string, limit int) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil || n < 1 || n > limit {
		return 0, false
	}
	return n, true
}

// labelName renders the displayed name for a rank number.
func labelName(rank int) string {
	return strconv.Itoa(rank)
}
