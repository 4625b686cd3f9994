package api

import (
	"net/http"

	"github.com/sells-group/footfall/internal/store"
)

// VisitPOIs handles GET /api/visits/pois: distinct POI names from the visits
// time series.
func (h *Handler) VisitPOIs(w http.ResponseWriter, r *http.Request) {
	pois, err := h.store.DistinctPOIs(r.Context())
	if err != nil {
		serverError(w, "distinct pois", err)
		return
	}
	writeJSON(w, http.StatusOK, pois)
}

func visitFilterFromQuery(r *http.Request) store.VisitFilter {
	q := r.URL.Query()
	return store.VisitFilter{
		POI:      q.Get("poi"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
}

// ListVisits handles GET /api/visits: visit rows for a POI and date range,
// date ascending.
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.store.ListVisits(r.Context(), visitFilterFromQuery(r))
	if err != nil {
		serverError(w, "list visits", err)
		return
	}
	writeJSON(w, http.StatusOK, visits)
}

// VisitsSummary handles GET /api/summary: row count, visitor total, and
// rounded averages for the filtered visits.
func (h *Handler) VisitsSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.store.SummarizeVisits(r.Context(), visitFilterFromQuery(r))
	if err != nil {
		serverError(w, "summarize visits", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
