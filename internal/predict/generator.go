package predict

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

const (
	// PlaceholderConfidence stands in for the external historical and
	// sentiment models until they publish scores.
	PlaceholderConfidence = 0.5

	maxEventNameLen = 200
)

// Generator turns open binary markets into stored predictions.
type Generator struct {
	newID func() string
	now   func() time.Time
}

// NewGenerator returns a Generator using random UUIDs and the wall clock.
func NewGenerator() *Generator {
	return &Generator{newID: uuid.NewString, now: time.Now}
}

// Generate builds one prediction per open binary market. Markets listed in
// skip (those already holding a pending prediction) are left out.
func (g *Generator) Generate(markets []domain.Market, skip map[string]bool) []domain.Prediction {
	now := g.now().UTC()
	out := make([]domain.Prediction, 0, len(markets))
	for _, m := range markets {
		if m.Status == domain.MarketStatusClosed || skip[m.ID] {
			continue
		}
		yes, _, ok := m.YesNoPrices()
		if !ok {
			continue
		}

		hybrid := yes
		out = append(out, domain.Prediction{
			ID:               g.newID(),
			MarketID:         m.ID,
			Sport:            m.Sport,
			EventName:        truncate(m.Title, maxEventNameLen),
			PredictedOutcome: ModelPick(hybrid),
			HistoricalConf:   PlaceholderConfidence,
			SentimentConf:    PlaceholderConfidence,
			HybridConf:       hybrid,
			Source:           domain.PredictionSourceModel,
			CreatedAt:        now,
		})
	}
	return out
}

// ModelPick is the outcome a model backs at the given confidence: Yes only
// above one half.
func ModelPick(conf float64) string {
	if conf > 0.5 {
		return domain.OutcomeYes
	}
	return domain.OutcomeNo
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
