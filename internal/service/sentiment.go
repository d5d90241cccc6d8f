package service

import (
	"strings"
)

// Analyzer is a pure lexicon-based sentiment scorer. Scoring is
// deterministic for identical input and has no side effects, so the
// downstream outcome table is the only policy boundary.
type Analyzer struct {
	lexicon  map[string]int
	negators map[string]struct{}
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		lexicon:  defaultLexicon,
		negators: defaultNegators,
	}
}

// Score sums the valence of every known token. A negator immediately before
// a scored token flips its sign ("not bad" reads positive).
func (a *Analyzer) Score(text string) int {
	tokens := tokenize(text)

	score := 0
	negated := false
	for _, token := range tokens {
		if _, ok := a.negators[token]; ok {
			negated = true
			continue
		}
		if valence, ok := a.lexicon[token]; ok {
			if negated {
				valence = -valence
			}
			score += valence
		}
		negated = false
	}
	return score
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '\''
	})
}

// Assessment is the fixed mapping from sentiment value to reputation
// effect. Swapping the scorer is fine as long as this table is preserved.
type Assessment struct {
	Delta int
	Toxic bool
	Label string
}

// Assess evaluates the outcome table in order. Empty or unscoreable text
// lands on the neutral row because its score is zero.
func Assess(score int) Assessment {
	switch {
	case score >= 3:
		return Assessment{Delta: 2, Label: "positive"}
	case score >= 1:
		return Assessment{Delta: 1, Label: "mildly positive"}
	case score >= -1:
		return Assessment{Delta: 0, Label: "neutral"}
	case score == -2:
		return Assessment{Delta: -1, Label: "mildly negative"}
	default:
		return Assessment{Delta: -5, Toxic: true, Label: "toxic"}
	}
}

var defaultNegators = map[string]struct{}{
	"not":    {},
	"no":     {},
	"never":  {},
	"don't":  {},
	"doesnt": {},
	"isn't":  {},
	"wasn't": {},
	"ain't":  {},
}

// defaultLexicon is an AFINN-style valence table trimmed to the vocabulary
// that actually shows up in game lobbies.
var defaultLexicon = map[string]int{
	"awesome":    4,
	"amazing":    4,
	"excellent":  3,
	"fantastic":  4,
	"great":      3,
	"good":       3,
	"nice":       3,
	"love":       3,
	"loved":      3,
	"fun":        4,
	"win":        4,
	"winning":    4,
	"clutch":     3,
	"carry":      2,
	"carried":    2,
	"thanks":     2,
	"thank":      2,
	"welcome":    2,
	"gg":         2,
	"wp":         2,
	"glhf":       2,
	"pog":        3,
	"cool":       1,
	"solid":      2,
	"helpful":    2,
	"friendly":   2,
	"respect":    2,
	"sorry":      1,
	"np":         1,
	"ok":         1,
	"okay":       1,
	"fine":       1,
	"decent":     1,
	"improve":    1,
	"better":     2,
	"best":       3,
	"happy":      3,
	"enjoyed":    2,
	"teamwork":   2,
	"bad":        -3,
	"worse":      -3,
	"worst":      -3,
	"terrible":   -3,
	"awful":      -3,
	"horrible":   -3,
	"trash":      -3,
	"garbage":    -3,
	"useless":    -3,
	"pathetic":   -3,
	"stupid":     -2,
	"idiot":      -3,
	"noob":       -2,
	"loser":      -3,
	"hate":       -3,
	"hated":      -3,
	"toxic":      -2,
	"annoying":   -2,
	"boring":     -2,
	"lag":        -1,
	"laggy":      -1,
	"gripe":      -2,
	"throw":      -2,
	"throwing":   -2,
	"griefing":   -3,
	"griefer":    -3,
	"quit":       -1,
	"rage":       -2,
	"ragequit":   -3,
	"report":     -1,
	"reported":   -1,
	"uninstall":  -3,
	"disgusting": -3,
	"cheater":    -3,
	"cheating":   -3,
	"hacker":     -2,
	"scum":       -4,
	"shut":       -2,
	"kys":        -5,
}
