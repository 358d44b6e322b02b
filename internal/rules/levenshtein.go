package rules

// Levenshtein returns the single-character insert/delete/substitute edit distance
// between a and b, computed over runes with a full DP matrix. It is case-sensitive;
// lowercase both sides first for a case-insensitive distance.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	matrix := make([][]int, len(rb)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(ra)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(ra); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = min(
				matrix[i-1][j-1]+1, // substitution
				matrix[i][j-1]+1,   // insertion
				matrix[i-1][j]+1,   // deletion
			)
		}
	}

	return matrix[len(rb)][len(ra)]
}
