package domain

// SportCategory is the sport a market belongs to. SportAll means the market
// could not be classified and doubles as the "no filter" value in queries.
type SportCategory string

const (
	SportAll     SportCategory = "all"
	SportNBA     SportCategory = "nba"
	SportNFL     SportCategory = "nfl"
	SportMLB     SportCategory = "mlb"
	SportNHL     SportCategory = "nhl"
	SportSoccer  SportCategory = "soccer"
	SportMMA     SportCategory = "mma"
	SportTennis  SportCategory = "tennis"
	SportGolf    SportCategory = "golf"
	SportF1      SportCategory = "f1"
	SportCricket SportCategory = "cricket"
	SportRugby   SportCategory = "rugby"
	SportEsports SportCategory = "esports"
	SportNCAA    SportCategory = "ncaa"
)

// LookupSport returns the SportCategory named by s. Empty and "all" yield
// SportAll; any other unknown value reports false.
func LookupSport(s string) (SportCategory, bool) {
	switch c := SportCategory(s); c {
	case "", SportAll:
		return SportAll, true
	case SportNBA, SportNFL, SportMLB, SportNHL, SportSoccer, SportMMA,
		SportTennis, SportGolf, SportF1, SportCricket, SportRugby,
		SportEsports, SportNCAA:
		return c, true
	default:
		return SportAll, false
	}
}

// ParseSport maps a value onto a known SportCategory. Unknown and empty
// values map to SportAll.
func ParseSport(s string) SportCategory {
	c, _ := LookupSport(s)
	return c
}

// MarketType is the shape of the question a market asks.
type MarketType string

const (
	MarketTypeMoneyline MarketType = "moneyline"
	MarketTypeSpread    MarketType = "spread"
	MarketTypeFutures   MarketType = "futures"
	MarketTypeProp      MarketType = "prop"
	MarketTypeOther     MarketType = "other"
)

// MarketStatus represents the lifecycle state of a market as displayed.
type MarketStatus string

const (
	MarketStatusLive     MarketStatus = "live"
	MarketStatusUpcoming MarketStatus = "upcoming"
	MarketStatusClosed   MarketStatus = "closed"
)

// ParseStatus returns the status for a query value and false when the value
// is empty or unknown (meaning "any status").
func ParseStatus(s string) (MarketStatus, bool) {
	switch st := MarketStatus(s); st {
	case MarketStatusLive, MarketStatusUpcoming, MarketStatusClosed:
		return st, true
	default:
		return "", false
	}
}

// Outcome is one possible resolution of a market with its implied
// probability.
type Outcome struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	TokenID string  `json:"tokenId,omitempty"`
}

// Market is a normalized sports prediction market ready for display.
type Market struct {
	ID          string        `json:"id"`
	EventID     string        `json:"eventId"`
	Sport       SportCategory `json:"sport"`
	MarketType  MarketType    `json:"marketType"`
	Status      MarketStatus  `json:"status"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Outcomes    []Outcome     `json:"outcomes"`
	SpreadValue *float64      `json:"spreadValue,omitempty"`
	Volume      float64       `json:"volume"`
	Liquidity   float64       `json:"liquidity"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"endDate"`
	Image       string        `json:"image,omitempty"`
	SeriesSlug  string        `json:"seriesSlug,omitempty"`
}

// IsBinary reports whether the market has exactly two outcomes.
func (m Market) IsBinary() bool {
	return len(m.Outcomes) == 2
}

// YesNoPrices returns the prices of the first and second outcome of a binary
// market. The first outcome is treated as YES.
func (m Market) YesNoPrices() (yes, no float64, ok bool) {
	if !m.IsBinary() {
		return 0, 0, false
	}
	return m.Outcomes[0].Price, m.Outcomes[1].Price, true
}

// MarketQuery selects a page of normalized markets.
type MarketQuery struct {
	Sport  SportCategory
	Status MarketStatus // empty means any status
	Limit  int
	Offset int
}
