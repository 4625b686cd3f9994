package api

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/footfall/internal/model"
	"github.com/sells-group/footfall/internal/store"
)

// exportHeader mirrors the list item projection, column for column.
var exportHeader = []string{
	"id", "entity_id", "name", "chain_name", "category", "dma",
	"city", "state", "foot_traffic", "date_opened", "date_closed",
}

// ListVenues handles GET /api/venues: paginated, filtered listing.
func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be an integer >= 1")
		return
	}
	perPage, err := intParam(q.Get("per_page"), 50)
	if err != nil || perPage < store.MinPerPage || perPage > store.MaxPerPage {
		writeError(w, http.StatusBadRequest, "per_page must be an integer in [1, 500]")
		return
	}

	result, err := h.store.ListVenues(r.Context(), venueFilterFromQuery(q), page, perPage)
	if err != nil {
		serverError(w, "list venues", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// VenuesSummary handles GET /api/venues/summary: count and foot-traffic sum
// over the same predicate the listing uses.
func (h *Handler) VenuesSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.store.SummarizeVenues(r.Context(), venueFilterFromQuery(r.URL.Query()))
	if err != nil {
		serverError(w, "summarize venues", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// DistinctValues handles GET /api/distinct/{field}: filter-UI suggestions for
// the chain/category/dma dimensions.
func (h *Handler) DistinctValues(w http.ResponseWriter, r *http.Request) {
	field, err := store.ParseVenueField(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "field must be one of chain, category, dma")
		return
	}

	values, err := h.store.DistinctVenueValues(r.Context(), field, r.URL.Query().Get("q"))
	if err != nil {
		serverError(w, "distinct venue values", err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// VenueNames handles GET /api/pois: all distinct venue names, used by the
// filter UI. Kept on the legacy path the frontend already calls.
func (h *Handler) VenueNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.VenueNames(r.Context())
	if err != nil {
		serverError(w, "venue names", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// ExportVenues handles GET /api/venues/export: every matching row as CSV,
// streamed as it is read rather than buffered.
func (h *Handler) ExportVenues(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="venues_export.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		serverError(w, "export venues", err)
		return
	}

	flusher, _ := w.(http.Flusher)
	n := 0
	err := h.store.ExportVenues(r.Context(), venueFilterFromQuery(r.URL.Query()), func(row model.VenueRow) error {
		if err := cw.Write(csvRecord(row)); err != nil {
			return err
		}
		n++
		if n%500 == 0 {
			cw.Flush()
			if flusher != nil {
				flusher.Flush()
			}
		}
		return nil
	})
	if err != nil {
		// Headers and part of the body are already on the wire; all we can
		// do is log and truncate.
		zap.L().Error("export venues", zap.Error(err))
		return
	}
	cw.Flush()
}

func csvRecord(r model.VenueRow) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		deref(r.EntityID),
		deref(r.Name),
		deref(r.ChainName),
		deref(r.Category),
		deref(r.DMA),
		deref(r.City),
		deref(r.State),
		strconv.FormatInt(r.FootTraffic, 10),
		deref(r.DateOpened),
		deref(r.DateClosed),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// intParam parses an optional positive-integer query parameter.
func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
