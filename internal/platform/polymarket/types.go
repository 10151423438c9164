package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether a flag is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// JSONFloat accepts a JSON number, a numeric string, an empty string or null.
// Anything unparseable decodes to zero rather than failing the whole payload.
type JSONFloat float64

func (j *JSONFloat) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*j = JSONFloat(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*j = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*j = 0
		return nil
	}
	*j = JSONFloat(f)
	return nil
}

// Float64 returns the value as a float64.
func (j JSONFloat) Float64() float64 {
	return float64(j)
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APITag is a taxonomy label attached to an event.
type APITag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// APISeries is the recurring series (league, season) an event belongs to.
type APISeries struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Active      flexBool    `json:"active"`
	Closed      flexBool    `json:"closed"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Image       string      `json:"image"`
	Volume      JSONFloat   `json:"volume"`
	Liquidity   JSONFloat   `json:"liquidity"`
	SeriesSlug  string      `json:"seriesSlug"`
	Series      []APISeries `json:"series"`
	Tags        []APITag    `json:"tags"`
	Markets     []APIMarket `json:"markets"`
}

// SeriesSlugOrEmpty returns the event's series slug, preferring the explicit
// field over the first nested series entry.
func (e *APIEvent) SeriesSlugOrEmpty() string {
	if e.SeriesSlug != "" {
		return e.SeriesSlug
	}
	for _, s := range e.Series {
		if s.Slug != "" {
			return s.Slug
		}
	}
	return ""
}

// TagValues returns every tag slug and label. Empty values are skipped.
func (e *APIEvent) TagValues() []string {
	out := make([]string, 0, len(e.Tags)*2)
	for _, t := range e.Tags {
		if t.Slug != "" {
			out = append(out, t.Slug)
		}
		if t.Label != "" {
			out = append(out, t.Label)
		}
	}
	return out
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes, OutcomePrices and ClobTokenIDs are JSON-encoded arrays carried
// inside string fields.
type APIMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Description   string    `json:"description"`
	ConditionID   string    `json:"conditionId"`
	Slug          string    `json:"slug"`
	Active        flexBool  `json:"active"`
	Closed        flexBool  `json:"closed"`
	Outcomes      string    `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string    `json:"outcomePrices"` // e.g. "[\"0.55\",\"0.45\"]"
	ClobTokenIDs  string    `json:"clobTokenIds"`  // e.g. "[\"123\",\"456\"]"
	Volume        JSONFloat `json:"volume"`
	Liquidity     JSONFloat `json:"liquidity"`
	StartDate     string    `json:"startDate"`
	EndDate       string    `json:"endDate"`
	Image         string    `json:"image"`
}
