package normalize

import (
	"time"

	"github.com/alanyoungcy/sportspulse/internal/classify"
	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/platform/polymarket"
)

// Market assembles a display record from an event and one of its markets.
// now is the reference time for status derivation.
func Market(ev *polymarket.APIEvent, m *polymarket.APIMarket, now time.Time) domain.Market {
	title := firstNonEmpty(m.Question, ev.Title)
	desc := firstNonEmpty(m.Description, ev.Description)
	seriesSlug := ev.SeriesSlugOrEmpty()

	var slug *string
	if seriesSlug != "" {
		slug = &seriesSlug
	}

	out := domain.Market{
		ID:          m.ID,
		EventID:     ev.ID,
		Sport:       classify.Sport(slug, ev.TagValues()),
		MarketType:  classify.MarketType(title, desc),
		Title:       title,
		Description: desc,
		Outcomes:    ParseOutcomes(m.Outcomes, m.OutcomePrices, m.ClobTokenIDs),
		Volume:      m.Volume.Float64(),
		Liquidity:   m.Liquidity.Float64(),
		StartDate:   firstNonEmpty(m.StartDate, ev.StartDate),
		EndDate:     firstNonEmpty(m.EndDate, ev.EndDate),
		Image:       firstNonEmpty(m.Image, ev.Image),
		SeriesSlug:  seriesSlug,
	}
	if out.MarketType == domain.MarketTypeSpread {
		out.SpreadValue = classify.Spread(title)
	}
	out.Status = Status(bool(m.Closed) || bool(ev.Closed), out.EndDate, now)
	return out
}

// Event normalizes every market of an event.
func Event(ev *polymarket.APIEvent, now time.Time) []domain.Market {
	out := make([]domain.Market, 0, len(ev.Markets))
	for i := range ev.Markets {
		out = append(out, Market(ev, &ev.Markets[i], now))
	}
	return out
}

// Status derives the display status. A market that is past its end date but
// not flagged closed by the source is reported as live.
func Status(closed bool, endDate string, now time.Time) domain.MarketStatus {
	if closed {
		return domain.MarketStatusClosed
	}
	if end, ok := parseDate(endDate); ok && end.Before(now) {
		return domain.MarketStatusLive
	}
	return domain.MarketStatusUpcoming
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05Z07", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
