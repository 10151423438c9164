package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/pipeline"
)

// RefreshStatuser reports the background refresher state.
type RefreshStatuser interface {
	Status() pipeline.RefreshStatus
}

// JobLister names the scheduled jobs.
type JobLister interface {
	Jobs() []string
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	Clients() int
}

// StatusHandler serves the runtime status for operators. Any of its sources
// may be nil when the running mode lacks that component.
type StatusHandler struct {
	Mode      string
	Version   string
	Refresher RefreshStatuser
	Jobs      JobLister
	WS        ClientCounter
	started   time.Time
}

// NewStatusHandler creates a StatusHandler for the given mode.
func NewStatusHandler(mode, version string, refresher RefreshStatuser, jobs JobLister, ws ClientCounter) *StatusHandler {
	return &StatusHandler{
		Mode:      mode,
		Version:   version,
		Refresher: refresher,
		Jobs:      jobs,
		WS:        ws,
		started:   time.Now(),
	}
}

// GetStatus responds with the current mode and component state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"success":        true,
		"mode":           h.Mode,
		"version":        h.Version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      timestamp(),
	}
	if h.Refresher != nil {
		body["refresher"] = h.Refresher.Status()
	}
	if h.Jobs != nil {
		body["jobs"] = h.Jobs.Jobs()
	}
	if h.WS != nil {
		body["ws_clients"] = h.WS.Clients()
	}
	writeJSON(w, http.StatusOK, body)
}
