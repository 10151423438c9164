package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestSport(t *testing.T) {
	tests := []struct {
		name string
		slug *string
		tags []string
		want domain.SportCategory
	}{
		{"tag exact match", nil, []string{"NBA"}, domain.SportNBA},
		{"slug substring", strPtr("nfl-2025-week-3"), nil, domain.SportNFL},
		{"slug wins over later tag", strPtr("ufc-300"), []string{"soccer"}, domain.SportMMA},
		{"table order resolves football", nil, []string{"soccer", "football"}, domain.SportNFL},
		{"football slug is nfl", strPtr("american-football"), nil, domain.SportNFL},
		{"college football slug is ncaa", strPtr("ncaa-football"), nil, domain.SportNCAA},
		{"ncaa tag beats basketball tag", nil, []string{"basketball", "ncaa"}, domain.SportNCAA},
		{"college basketball slug", strPtr("college-basketball-2025"), nil, domain.SportNCAA},
		{"premier league slug", strPtr("epl-2025"), nil, domain.SportSoccer},
		{"tags are not substring matched", nil, []string{"basketball-news"}, domain.SportAll},
		{"accented tag folds", nil, []string{"Ténnis"}, domain.SportTennis},
		{"no match", strPtr("us-election"), []string{"politics"}, domain.SportAll},
		{"nil slug and no tags", nil, nil, domain.SportAll},
		{"empty slug", strPtr(""), []string{"f1"}, domain.SportF1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sport(tt.slug, tt.tags))
		})
	}
}

func TestSport_FirstTableEntryWins(t *testing.T) {
	// Every pair of sports: tags naming both resolve to the earlier entry.
	sports := Sports()
	require.Equal(t, domain.SportNCAA, sports[0])
	for i := 0; i < len(sports); i++ {
		for j := i + 1; j < len(sports); j++ {
			tags := []string{sportTable[j].keywords[0], sportTable[i].keywords[0]}
			assert.Equal(t, sports[i], Sport(nil, tags), "tags %v", tags)
		}
	}
}

func TestMarketType(t *testing.T) {
	tests := []struct {
		title string
		desc  string
		want  domain.MarketType
	}{
		{"Lakers Championship Winner 2025", "", domain.MarketTypeFutures},
		{"Team A to win by more than 5.5 points", "", domain.MarketTypeSpread},
		{"Chiefs by over 3", "", domain.MarketTypeSpread},
		{"Celtics -7.5 points vs Knicks", "", domain.MarketTypeSpread},
		{"NBA Finals: Celtics win by over 10 points", "", domain.MarketTypeSpread},
		{"Super Bowl LX", "", domain.MarketTypeFutures},
		{"Who wins the World Series?", "", domain.MarketTypeFutures},
		{"Season MVP", "", domain.MarketTypeFutures},
		{"Who will be the first pick in the draft?", "", domain.MarketTypeProp},
		{"Total goals over 2.5", "", domain.MarketTypeProp},
		{"Will Mahomes score a touchdown?", "", domain.MarketTypeProp},
		{"Lakers vs Celtics", "Game on Friday", domain.MarketTypeMoneyline},
		{"Arsenal vs Chelsea", "Resolves to the championship leader", domain.MarketTypeFutures},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, MarketType(tt.title, tt.desc))
		})
	}
}

func TestSpread(t *testing.T) {
	v := Spread("Team A to win by more than 5.5 points")
	require.NotNil(t, v)
	assert.Equal(t, 5.5, *v)

	v = Spread("Chiefs by over 3 PTS")
	require.NotNil(t, v)
	assert.Equal(t, 3.0, *v)

	assert.Nil(t, Spread("Lakers vs Celtics"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "atletico madrid", fold("  Atlético   MADRID "))
}
