// FilePath: server/clima/api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/service"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Reports  *ReportHandlers
	Readings *ReadingHandlers
	System   *SystemHandlers
	Metrics  func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *service.Service) *Resources {
	return &Resources{
		Reports:  &ReportHandlers{service: svc},
		Readings: newReadingHandlers(svc),
		System:   &SystemHandlers{service: svc},
		Metrics:  http.NotFound,
	}
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}

// toAPIError keeps the classification of a service error, or falls back to internal.
func toAPIError(err error, msg string, requestID string) *errors.APIError {
	if apiErr, ok := errors.As(err); ok {
		e := *apiErr
		return e.WithRequestID(requestID)
	}
	return errors.NewInternalError(msg, err).WithRequestID(requestID)
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
