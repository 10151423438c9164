package domain

import "time"

// Pick labels for the binary display prediction.
const (
	PickYes = "YES"
	PickNo  = "NO"
)

// Pick is the display-only prediction derived from a binary market's prices.
type Pick struct {
	Pick       string  `json:"pick"`
	Confidence float64 `json:"confidence"`
}

// Outcome labels stored on persisted predictions.
const (
	OutcomeYes = "Yes"
	OutcomeNo  = "No"
)

// PredictionSource records where a persisted prediction came from.
type PredictionSource string

const (
	PredictionSourceModel PredictionSource = "model"
	PredictionSourceMock  PredictionSource = "mock"
)

// Prediction is a stored forecast for a single market, scored once the
// market resolves.
type Prediction struct {
	ID               string           `json:"id"`
	MarketID         string           `json:"marketId"`
	Sport            SportCategory    `json:"sport"`
	EventName        string           `json:"eventName"`
	PredictedOutcome string           `json:"predictedOutcome"`
	HistoricalConf   float64          `json:"historicalConf"`
	SentimentConf    float64          `json:"sentimentConf"`
	HybridConf       float64          `json:"hybridConf"`
	ActualOutcome    *string          `json:"actualOutcome,omitempty"`
	IsCorrect        *bool            `json:"isCorrect,omitempty"`
	Source           PredictionSource `json:"source"`
	CreatedAt        time.Time        `json:"createdAt"`
	ResolvedAt       *time.Time       `json:"resolvedAt,omitempty"`
}

// Resolved reports whether the prediction has been scored.
func (p Prediction) Resolved() bool {
	return p.ActualOutcome != nil
}

// ModelType names one of the confidence models tracked for accuracy.
type ModelType string

const (
	ModelHistorical ModelType = "historical"
	ModelSentiment  ModelType = "sentiment"
	ModelHybrid     ModelType = "hybrid"
)

// AllModels lists the tracked models in reporting order.
var AllModels = []ModelType{ModelHistorical, ModelSentiment, ModelHybrid}

// Confidence returns the prediction's confidence for the given model.
func (p Prediction) Confidence(model ModelType) float64 {
	switch model {
	case ModelHistorical:
		return p.HistoricalConf
	case ModelSentiment:
		return p.SentimentConf
	default:
		return p.HybridConf
	}
}

// ModelMetrics holds rolling accuracy for one model.
type ModelMetrics struct {
	ModelType   ModelType `json:"modelType"`
	Accuracy7d  float64   `json:"accuracy7d"`
	Accuracy30d float64   `json:"accuracy30d"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ScoreReport summarizes one scoring pass over pending predictions.
type ScoreReport struct {
	Total        int `json:"total"`
	Scored       int `json:"scored"`
	Correct      int `json:"correct"`
	Wrong        int `json:"wrong"`
	StillPending int `json:"stillPending"`
}

// PredictionFilter narrows a prediction listing.
type PredictionFilter struct {
	Sport    SportCategory
	Resolved *bool
	Limit    int
}
