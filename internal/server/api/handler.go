package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"contenthub/ingestor/internal/ingest"
	"contenthub/ingestor/internal/models"
	"contenthub/ingestor/internal/storage"
)

const defaultLimit = 20
const maxLimit = 1000

// CreateRequest is the body of a direct ingestion call.
type CreateRequest struct {
	Items []ingest.RawItem `json:"items"`
}

// RecordsResponse wraps a list of hydrated records.
type RecordsResponse struct {
	Records []models.Record `json:"records"`
}

// RecordsHandler holds dependencies for the records endpoints. The logger
// is retrieved from the request context.
type RecordsHandler struct {
	svc *ingest.Service
}

// NewRecordsHandler creates a new handler instance.
func NewRecordsHandler(svc *ingest.Service) *RecordsHandler {
	return &RecordsHandler{svc: svc}
}

// GetRecords handles reads: up to 'limit' records, most recent first.
func (h *RecordsHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	records, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Int("limit", limit).Msg("Error fetching recent records")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, RecordsResponse{Records: records})
}

// CreateRecords handles direct ingestion of pre-analyzed candidates.
func (h *RecordsHandler) CreateRecords(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid request body")
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	records, err := h.svc.IngestDirect(r.Context(), req.Items)
	if err != nil {
		h.writeIngestError(w, r, err)
		return
	}

	log.Info().Int("created", len(records)).Msg("Direct batch ingested")
	writeJSON(w, r, http.StatusCreated, RecordsResponse{Records: records})
}

// RefreshRecords triggers one incremental ingestion cycle from the source.
// An empty result is a normal outcome, returned as 200 with no records.
func (h *RecordsHandler) RefreshRecords(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	records, err := h.svc.IngestFromSource(r.Context(), limit)
	if err != nil {
		h.writeIngestError(w, r, err)
		return
	}

	log.Info().Int("created", len(records)).Msg("Incremental ingestion completed")
	writeJSON(w, r, http.StatusOK, RecordsResponse{Records: records})
}

// writeIngestError maps ingestion error kinds onto HTTP statuses so callers
// can branch on them.
func (h *RecordsHandler) writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	log := hlog.FromRequest(r)

	switch {
	case errors.Is(err, ingest.ErrNoIngestibleData):
		log.Warn().Err(err).Msg("Nothing ingestible in request")
		http.Error(w, "No ingestible data in request", http.StatusBadRequest)
	case errors.Is(err, ingest.ErrFetchFailed):
		log.Error().Err(err).Msg("Source fetch failed")
		http.Error(w, "Upstream source fetch failed", http.StatusBadGateway)
	case errors.Is(err, storage.ErrBatchFailed):
		log.Error().Err(err).Msg("Batch persistence failed, no rows created")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	default:
		log.Error().Err(err).Msg("Ingestion failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// limitParam parses the optional 'limit' query parameter. On invalid input
// it writes a 400 and returns ok=false.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	log := hlog.FromRequest(r)

	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return defaultLimit, true
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > maxLimit {
		log.Warn().Err(err).Str("limit", limitStr).Msg("Invalid 'limit' parameter value")
		http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	log := hlog.FromRequest(r)

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jsonBytes); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body to client")
	}
}
