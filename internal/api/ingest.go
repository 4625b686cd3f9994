package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/footfall/internal/model"
)

// Ingest handles POST /api/ingest: a non-empty JSON array of visit rows.
// Every row must validate before anything is written; the store insert is a
// single transaction, so a failure leaves no partial batch behind.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var payloads []model.VisitPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON array of visit rows")
		return
	}
	if len(payloads) == 0 {
		writeError(w, http.StatusBadRequest, "batch must not be empty")
		return
	}

	batchID := uuid.New().String()
	log := zap.L().With(zap.String("batch_id", batchID), zap.Int("rows", len(payloads)))

	visits := make([]model.Visit, 0, len(payloads))
	for i, p := range payloads {
		v, err := model.ParseVisit(p)
		if err != nil {
			log.Warn("ingest batch rejected", zap.Int("row", i), zap.Error(err))
			writeError(w, http.StatusBadRequest, fmt.Sprintf("row %d: %s", i, err.Error()))
			return
		}
		visits = append(visits, v)
	}

	inserted, err := h.store.InsertVisits(r.Context(), visits)
	if err != nil {
		serverError(w, "insert visits", err)
		return
	}

	log.Info("ingest batch committed")
	writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}
