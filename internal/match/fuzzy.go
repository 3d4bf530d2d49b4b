package match

// Ratio computes Ratcliff/Obershelp similarity between two strings:
// twice the number of matching characters divided by the total length.
// Matching characters are counted over the longest common substring and,
// recursively, over the pieces to its left and right.
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	m := matching([]byte(a), []byte(b))
	return 2 * float64(m) / float64(len(a)+len(b))
}

// BestMatch returns the candidate with the highest Ratio against query,
// provided it clears cutoff. Ties keep the earliest candidate.
func BestMatch(query string, candidates []string, cutoff float64) (string, float64, bool) {
	best := ""
	bestScore := 0.0
	found := false
	for _, c := range candidates {
		r := Ratio(query, c)
		if r < cutoff {
			continue
		}
		if !found || r > bestScore {
			best, bestScore, found = c, r, true
		}
	}
	return best, bestScore, found
}

func matching(a, b []byte) int {
	ai, bi, size := longestCommon(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matching(a[:ai], b[:bi])
	total += matching(a[ai+size:], b[bi+size:])
	return total
}

func longestCommon(a, b []byte) (ai, bi, size int) {
	// lengths of common suffixes ending at a[i-1], b[j-1]; one row at a time
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
