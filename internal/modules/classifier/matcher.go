// Package classifier associates store upgrades with the building they improve.
//
// The host does not say which building an upgrade targets, so the association
// is a best-effort guess from the upgrade's description.
package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/aristath/comptroller/internal/domain"
)

// Matcher guesses the building an upgrade applies to.
type Matcher interface {
	Match(u domain.Upgrade, buildings []domain.Building) (domain.BuildingRef, bool)
}

// minFuzzyLength is the shortest building name the fuzzy fallback considers.
const minFuzzyLength = 5

// RegexMatcher looks for building names as whole words in the upgrade
// description, then falls back to words one edit away from a name.
type RegexMatcher struct {
	fuzzy bool
}

// NewRegexMatcher creates a matcher. fuzzy enables the edit-distance fallback.
func NewRegexMatcher(fuzzy bool) *RegexMatcher {
	return &RegexMatcher{fuzzy: fuzzy}
}

// Match implements Matcher.
func (m *RegexMatcher) Match(u domain.Upgrade, buildings []domain.Building) (domain.BuildingRef, bool) {
	text := u.Description
	if text == "" {
		return domain.BuildingRef{}, false
	}

	for _, b := range buildings {
		if re := namePattern(b); re != nil && re.MatchString(text) {
			return b.Ref(), true
		}
	}
	if !m.fuzzy {
		return domain.BuildingRef{}, false
	}
	return fuzzyMatch(text, buildings)
}

func buildingNames(b domain.Building) []string {
	var names []string
	seen := make(map[string]bool)
	for _, n := range []string{b.Plural, b.Single, b.Name} {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// namePattern is nil for a building without any name.
func namePattern(b domain.Building) *regexp.Regexp {
	names := buildingNames(b)
	if len(names) == 0 {
		return nil
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

func fuzzyMatch(text string, buildings []domain.Building) (domain.BuildingRef, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})

	bestDist := 2
	var best domain.BuildingRef
	for _, b := range buildings {
		for _, name := range buildingNames(b) {
			if len(name) < minFuzzyLength || strings.Contains(name, " ") {
				continue
			}
			for _, w := range words {
				if d := levenshtein.ComputeDistance(w, name); d < bestDist {
					bestDist = d
					best = b.Ref()
				}
			}
		}
	}
	return best, bestDist <= 1
}
