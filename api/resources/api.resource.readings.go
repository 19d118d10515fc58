// FilePath: server/clima/api/resources/api.resource.readings.go
package resources

import (
	"net/http"

	"github.com/gorilla/schema"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

// ReadingHandlers encapsulates the reading-related HTTP handlers
type ReadingHandlers struct {
	service *service.Service
	decoder *schema.Decoder
}

func newReadingHandlers(svc *service.Service) *ReadingHandlers {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &ReadingHandlers{service: svc, decoder: decoder}
}

// @Summary List stored readings
// @Tags readings
// @Produce json
// @Param hours query int false "Window in hours (default 24, max 168)"
// @Success 200 {array} models.SensorReading
// @Failure 400 {object} errors.APIError
// @Failure 503 {object} errors.APIError
// @Router /readings [get]
func (h *ReadingHandlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.ReadingFilters
	if err := h.decoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	readings, err := h.service.ReadingsWindow(r.Context(), filters)
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get readings", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Last live value per sensor
// @Tags readings
// @Produce json
// @Success 200 {object} models.LatestReadings
// @Router /latest-readings [get]
func (h *ReadingHandlers) LatestReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	latest, err := h.service.LatestReadings(r.Context())
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get latest readings", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, latest)
}
