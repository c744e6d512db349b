package ocr

import "strings"

// Similarity compares a recognised reading with the expected one and returns
// a score from 0.0 (nothing in common) to 1.0 (identical). Only digits and
// decimal points are compared.
func Similarity(detected, expected string) float64 {
	d := normalizeReading(detected)
	e := normalizeReading(expected)
	if e == "" {
		return 0
	}
	if d == e {
		return 1
	}

	// Longest common subsequence rewards digits read in the right order;
	// overlap rewards digits read at all.
	lcs := float64(longestCommonSubsequence(d, e)) / float64(max(len(d), len(e)))
	return 0.6*lcs + 0.4*characterOverlap(d, e)
}

func normalizeReading(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(DigitChars, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func longestCommonSubsequence(a, b string) int {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return 0
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

// characterOverlap is the fraction of expected characters found in detected,
// counting repeats.
func characterOverlap(detected, expected string) float64 {
	counts := make(map[rune]int)
	for _, r := range detected {
		counts[r]++
	}
	matched := 0
	for _, r := range expected {
		if counts[r] > 0 {
			matched++
			counts[r]--
		}
	}
	return float64(matched) / float64(len(expected))
}
