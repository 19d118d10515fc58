// FilePath: server/clima/api/resources/api.resource.system.go
package resources

import (
	"net/http"

	"github.com/itsatony/w4b_v3/server/clima/internal/service"
	"github.com/swaggo/swag"
)

// SystemHandlers serves health and API documentation
type SystemHandlers struct {
	service *service.Service
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} service.Health
// @Router /v1/health [get]
func (h *SystemHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Health(r.Context()))
}

// SwaggerDoc serves the registered OpenAPI document
func (h *SystemHandlers) SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
