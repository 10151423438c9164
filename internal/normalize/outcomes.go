// Package normalize turns raw Gamma API events into display-ready markets.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// DefaultPrice is used when an outcome has no usable price.
const DefaultPrice = 0.5

// ParseOutcomes decodes the JSON-string arrays carried on a Gamma market and
// zips them by index of the outcome names. Each argument may be empty
// (absent). Malformed JSON in any present field yields an empty list: the
// record is dropped as a whole, never partially.
func ParseOutcomes(outcomes, outcomePrices, clobTokenIDs string) []domain.Outcome {
	var names []string
	if !decodeArray(outcomes, &names) {
		return []domain.Outcome{}
	}
	var prices []json.RawMessage
	if !decodeArray(outcomePrices, &prices) {
		return []domain.Outcome{}
	}
	var tokens []json.RawMessage
	if !decodeArray(clobTokenIDs, &tokens) {
		return []domain.Outcome{}
	}

	out := make([]domain.Outcome, 0, len(names))
	for i, name := range names {
		o := domain.Outcome{Name: name, Price: DefaultPrice}
		if i < len(prices) {
			if p, ok := parsePrice(prices[i]); ok {
				o.Price = p
			}
		}
		if i < len(tokens) {
			o.TokenID = rawString(tokens[i])
		}
		out = append(out, o)
	}
	return out
}

// decodeArray unmarshals a JSON-encoded array held in s. An empty string is
// an absent field and succeeds without touching dst.
func decodeArray(s string, dst any) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	return json.Unmarshal([]byte(s), dst) == nil
}

// parsePrice accepts a JSON number or a numeric string. null is unusable.
func parsePrice(raw json.RawMessage) (float64, bool) {
	var num *float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num == nil {
			return 0, false
		}
		return *num, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// rawString returns a JSON string's value, or the literal text for numbers.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
