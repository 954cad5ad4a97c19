package resolve

import (
	"strings"

	"github.com/siherrmann/lorekeeper/model"
)

// Score rates the similarity of two names in [0.0, 1.0].
// Case-insensitive equality scores 1.0 and one name containing the other
// scores 0.9. Everything else falls back to a common subsequence ratio.
// Score is symmetric.
func Score(a string, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}

	return subsequenceRatio([]rune(a), []rune(b))
}

// BestScore rates a name against an entity, taking the best score over the
// canonical name and all aliases. Matching against aliases keeps names that
// were merged away from resurfacing as fresh entities.
func BestScore(name string, entity *model.Entity) float64 {
	best := Score(name, entity.Name)
	for _, alias := range entity.Aliases {
		if score := Score(name, alias); score > best {
			best = score
		}
	}
	return best
}

// subsequenceRatio computes 2*LCS(a, b) / (len(a)+len(b)) over runes
func subsequenceRatio(a []rune, b []rune) float64 {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return 2.0 * float64(prev[len(b)]) / float64(len(a)+len(b))
}
