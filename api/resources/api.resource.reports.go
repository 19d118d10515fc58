// FilePath: server/clima/api/resources/api.resource.reports.go
package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/w4b_v3/server/clima/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

// ReportHandlers encapsulates the report-related HTTP handlers
type ReportHandlers struct {
	service *service.Service
}

// @Summary Generate the daily report now
// @Description Runs the report pipeline over the last 24 hours of readings and stores the result for today
// @Tags reports
// @Produce json
// @Success 200 {object} models.Document
// @Failure 500 {object} errors.APIError
// @Router /generate-report [post]
func (h *ReportHandlers) GenerateReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	report, err := h.service.GenerateReport(r.Context())
	if err != nil {
		apiErr := toAPIError(err, "failed to generate report", requestID)
		apiErr.Code = http.StatusInternalServerError
		respondWithError(w, apiErr)
		return
	}

	respondWithJSON(w, http.StatusOK, report.Payload)
}

// @Summary Get the most recent report
// @Tags reports
// @Produce json
// @Success 200 {object} models.Document
// @Failure 404 {object} errors.APIError
// @Router /latest-report [get]
func (h *ReportHandlers) LatestReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	report, err := h.service.LatestReport(r.Context())
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get latest report", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, report.Payload)
}

// @Summary Get the report of a date
// @Tags reports
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} models.Document
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /reports/{date} [get]
func (h *ReportHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	requestID := nuts.NID("req", 12)

	report, err := h.service.ReportByDate(r.Context(), date)
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get report", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, report.Payload)
}
