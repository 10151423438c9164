package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

var (
	pointsRe = regexp.MustCompile(`\d+\.?\d*\s*points`)
	spreadRe = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:points|pts)?`)

	spreadPhrases  = []string{"by more than", "by over"}
	futuresPhrases = []string{"championship", "winner", "mvp", "finals", "super bowl", "world series"}
	propPhrases    = []string{"draft", "first pick", "total", "over/under"}
)

// MarketType classifies a market from its title and description. Rules run
// in a fixed order and the first match wins: spread, futures, prop, then
// moneyline as the default.
func MarketType(title, description string) domain.MarketType {
	text := fold(title + " " + description)

	if containsAny(text, spreadPhrases) || pointsRe.MatchString(text) {
		return domain.MarketTypeSpread
	}
	if containsAny(text, futuresPhrases) {
		return domain.MarketTypeFutures
	}
	if containsAny(text, propPhrases) ||
		(strings.Contains(text, "will") && strings.Contains(text, "score")) {
		return domain.MarketTypeProp
	}
	return domain.MarketTypeMoneyline
}

// Spread extracts the first numeric line from a title, e.g. 5.5 from
// "win by more than 5.5 points". It returns nil when no number is present.
func Spread(title string) *float64 {
	m := spreadRe.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
