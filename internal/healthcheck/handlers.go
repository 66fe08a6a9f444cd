package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the JSON body of /healthz and /readyz.
type Response struct {
	Status string `json:"status"`
	Snapshot
}

// HealthHandler serves /healthz: 200 while autosave checks keep running
// and the latest save did not fail.
func HealthHandler(tracker *Tracker, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, tracker.Healthy(time.Now().UTC(), interval), tracker.Snapshot())
	}
}

// ReadyHandler serves /readyz: 200 once the first autosave check has run.
func ReadyHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, tracker.Ready(), tracker.Snapshot())
	}
}

func respond(w http.ResponseWriter, ok bool, snapshot Snapshot) {
	body := Response{Status: "ok", Snapshot: snapshot}
	code := http.StatusOK
	if !ok {
		body.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
