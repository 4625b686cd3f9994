package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sells-group/footfall/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs the underlying failure and returns an opaque 500.
func serverError(w http.ResponseWriter, op string, err error) {
	zap.L().Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// multiValues merges repeated-key and bracket-suffixed forms of a query
// parameter ("chain" and "chain[]").
func multiValues(q url.Values, key string) []string {
	return append(q[key], q[key+"[]"]...)
}

// venueFilterFromQuery decodes the shared filter parameters. Multi-value
// fields accept repeated keys; city and state take a single value.
func venueFilterFromQuery(q url.Values) store.VenueFilter {
	return store.VenueFilter{
		Chains:     multiValues(q, "chain"),
		Categories: multiValues(q, "category"),
		DMAs:       multiValues(q, "dma"),
		City:       q.Get("city"),
		State:      q.Get("state"),
		OpenStatus: q.Get("open_status"),
	}
}
