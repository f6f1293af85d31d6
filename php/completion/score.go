package completion

import (
	"sort"
	"strings"

	"github.com/dhamidi/phpsense/php"
)

const (
	baseScore     = 1000
	exactBonus    = 500
	prefixBonus   = 300
	containsBonus = 100
	publicBonus   = 50
	commonBonus   = 25
)

var commonNames = map[string]bool{
	"__construct": true,
	"getName":     true,
	"getId":       true,
	"toString":    true,
	"getValue":    true,
}

// Score ranks name against prefix. Matching is case-insensitive.
func Score(name, prefix string, mods php.Modifiers) int {
	score := baseScore
	lname, lprefix := strings.ToLower(name), strings.ToLower(prefix)
	switch {
	case lname == lprefix:
		score += exactBonus
	case strings.HasPrefix(lname, lprefix):
		score += prefixBonus
	case strings.Contains(lname, lprefix):
		score += containsBonus
	}
	if mods.Has(php.ModPublic) {
		score += publicBonus
	}
	if commonNames[name] {
		score += commonBonus
	}
	return score
}

// Rank orders items by descending score, then shorter label, then label.
func Rank(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		if len(a.Label()) != len(b.Label()) {
			return len(a.Label()) < len(b.Label())
		}
		return a.Label() < b.Label()
	})
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
