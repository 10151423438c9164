package predict

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/sportspulse/internal/classify"
	"github.com/alanyoungcy/sportspulse/internal/domain"
)

var mockMatchups = map[domain.SportCategory][][2]string{
	domain.SportNBA:    {{"Lakers", "Celtics"}, {"Warriors", "Nuggets"}, {"Bucks", "Heat"}},
	domain.SportNFL:    {{"Chiefs", "Bills"}, {"Eagles", "Cowboys"}, {"49ers", "Packers"}},
	domain.SportMLB:    {{"Yankees", "Red Sox"}, {"Dodgers", "Giants"}},
	domain.SportNHL:    {{"Bruins", "Maple Leafs"}, {"Oilers", "Flames"}},
	domain.SportSoccer: {{"Arsenal", "Chelsea"}, {"Real Madrid", "Barcelona"}},
	domain.SportMMA:    {{"Jones", "Aspinall"}},
}

// Mock produces n deterministic demo predictions for sport. Sports without
// demo fixtures (including SportAll) cycle through every fixture sport. The
// same seed always yields the same list; every third entry is resolved.
func Mock(n int, sport domain.SportCategory, seed uint64, now time.Time) []domain.Prediction {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var sports []domain.SportCategory
	if _, ok := mockMatchups[sport]; ok {
		sports = []domain.SportCategory{sport}
	} else {
		for _, s := range classify.Sports() {
			if _, ok := mockMatchups[s]; ok {
				sports = append(sports, s)
			}
		}
	}

	out := make([]domain.Prediction, 0, n)
	for i := 0; i < n; i++ {
		s := sports[i%len(sports)]
		pairs := mockMatchups[s]
		pair := pairs[rng.IntN(len(pairs))]

		hist := round(0.35+rng.Float64()*0.4, 2)
		sent := round(0.35+rng.Float64()*0.4, 2)
		hybrid := round((hist+sent)/2, 2)

		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("mock-%d-%d", seed, i)))

		p := domain.Prediction{
			ID:               id.String(),
			MarketID:         fmt.Sprintf("mock-%s-%d", s, i),
			Sport:            s,
			EventName:        fmt.Sprintf("%s vs %s", pair[0], pair[1]),
			PredictedOutcome: ModelPick(hybrid),
			HistoricalConf:   hist,
			SentimentConf:    sent,
			HybridConf:       hybrid,
			Source:           domain.PredictionSourceMock,
			CreatedAt:        now.Add(-time.Duration(i+1) * time.Hour).UTC(),
		}
		if i%3 == 0 {
			actual := domain.OutcomeYes
			if rng.IntN(2) == 0 {
				actual = domain.OutcomeNo
			}
			correct := actual == p.PredictedOutcome
			resolved := p.CreatedAt.Add(3 * time.Hour)
			p.ActualOutcome = &actual
			p.IsCorrect = &correct
			p.ResolvedAt = &resolved
		}
		out = append(out, p)
	}
	return out
}
