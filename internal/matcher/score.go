package matcher

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/sentient-soup/reelname/internal/tmdb"
	"github.com/sentient-soup/reelname/pkg/release"
)

// Score weights. They sum to 1.
const (
	WeightTitle      = 0.60
	WeightYear       = 0.25
	WeightType       = 0.10
	WeightPopularity = 0.05
)

// AutoMatchGap is the lead the best candidate needs over the runner-up
// before it is applied without review.
const AutoMatchGap = 0.15

// DefaultThreshold is used when the auto_match_threshold setting is unset.
const DefaultThreshold = 0.85

// Score rates how well a catalog result fits a parsed identity. The result
// is in [0, 1].
func Score(title string, year *int, mediaType release.MediaType, c tmdb.SearchResult) float64 {
	score := WeightTitle * titleSimilarity(title, c.DisplayTitle())
	score += yearScore(year, c.Year())
	score += typeScore(mediaType, c.MediaType)
	score += max(0, min(c.Popularity/100, 1)) * WeightPopularity
	return score
}

// titleSimilarity is normalized Levenshtein similarity on lowercased,
// trimmed strings.
func titleSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(sim)
}

func yearScore(parsed, candidate *int) float64 {
	if parsed == nil {
		return 0.10
	}
	if candidate == nil {
		return 0
	}
	diff := *parsed - *candidate
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return WeightYear
	case 1:
		return 0.15
	case 2:
		return 0.05
	default:
		return 0
	}
}

func typeScore(parsed release.MediaType, candidate string) float64 {
	if parsed == release.MediaUnknown {
		return WeightType / 2
	}
	if parsed.String() == candidate {
		return WeightType
	}
	return 0
}

// Decision is the outcome of comparing ranked scores against the threshold.
type Decision struct {
	Top       float64
	Gap       float64
	AutoMatch bool
}

// Decide reports whether the best of scores (sorted descending) is strong
// and distinct enough to apply automatically. A lone candidate has a gap of 1.
func Decide(scores []float64, threshold float64) Decision {
	if len(scores) == 0 {
		return Decision{}
	}
	d := Decision{Top: scores[0], Gap: 1}
	if len(scores) > 1 {
		d.Gap = scores[0] - scores[1]
	}
	d.AutoMatch = d.Top >= threshold && d.Gap >= AutoMatchGap
	return d
}
