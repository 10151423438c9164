package domain

import "time"

// Topics published on the application event bus.
const (
	TopicMarketsRefreshed  = "markets.refreshed"
	TopicRefreshFailed     = "markets.refresh_failed"
	TopicPredictionsMade   = "predictions.generated"
	TopicPredictionsScored = "predictions.scored"
	TopicError             = "error"
)

// Event is a fire-and-forget notification carried by the event bus.
type Event struct {
	Topic   string         `json:"topic"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
	// Origin is set on events received from another replica.
	Origin  string         `json:"origin,omitempty"`
}
