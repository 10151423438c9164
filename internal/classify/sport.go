package classify

import (
	"strings"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

type sportKeywords struct {
	sport    domain.SportCategory
	keywords []string
}

// sportTable is scanned top to bottom and the first match wins. Overlapping
// keywords ("football" for NFL versus soccer) resolve by position, so entries
// must not be reordered. NCAA leads so college events carrying a generic
// "basketball" or "football" keyword are not taken for the pro leagues.
var sportTable = []sportKeywords{
	{domain.SportNCAA, []string{"ncaa", "march-madness", "cfb", "college"}},
	{domain.SportNBA, []string{"nba", "basketball"}},
	{domain.SportNFL, []string{"nfl", "football", "super-bowl"}},
	{domain.SportMLB, []string{"mlb", "baseball", "world-series"}},
	{domain.SportNHL, []string{"nhl", "hockey", "stanley-cup"}},
	{domain.SportMMA, []string{"mma", "ufc"}},
	{domain.SportSoccer, []string{"soccer", "epl", "premier-league", "la-liga", "serie-a", "bundesliga", "champions-league", "mls", "fifa"}},
	{domain.SportTennis, []string{"tennis", "atp", "wta"}},
	{domain.SportGolf, []string{"golf", "pga"}},
	{domain.SportF1, []string{"formula-1", "formula1", "f1"}},
	{domain.SportCricket, []string{"cricket", "ipl"}},
	{domain.SportRugby, []string{"rugby"}},
	{domain.SportEsports, []string{"esports", "league-of-legends", "dota", "csgo", "cs2", "valorant"}},
}

// Sport returns the first sport in table order whose keywords appear as a
// substring of the series slug or as an exact element of tags. A nil slug is
// treated as empty. Unmatched input yields domain.SportAll.
func Sport(seriesSlug *string, tags []string) domain.SportCategory {
	slug := ""
	if seriesSlug != nil {
		slug = fold(*seriesSlug)
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[fold(t)] = struct{}{}
	}

	for _, entry := range sportTable {
		for _, kw := range entry.keywords {
			if slug != "" && strings.Contains(slug, kw) {
				return entry.sport
			}
			if _, ok := tagSet[kw]; ok {
				return entry.sport
			}
		}
	}
	return domain.SportAll
}

// Sports lists the classifiable sports in table order.
func Sports() []domain.SportCategory {
	out := make([]domain.SportCategory, 0, len(sportTable))
	for _, e := range sportTable {
		out = append(out, e.sport)
	}
	return out
}
