package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/KlotzJesse/solar-potential/internal/application/selection"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
	"github.com/KlotzJesse/solar-potential/pkg/errors"
)

// BuildingHandler exposes the building-selection service over HTTP.
type BuildingHandler struct {
	svc    selection.Service
	logger logging.Logger
}

// NewBuildingHandler creates a new BuildingHandler.
func NewBuildingHandler(svc selection.Service, logger logging.Logger) *BuildingHandler {
	return &BuildingHandler{svc: svc, logger: logger.Named("http.buildings")}
}

// AddBuildingRequest selects a building either by map location or by a
// free-form address query. Exactly one of the two forms must be supplied.
type AddBuildingRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
	Nickname  string   `json:"nickname,omitempty"`
}

// List handles GET /api/v1/buildings.
func (h *BuildingHandler) List(w http.ResponseWriter, r *http.Request) {
	buildings := h.svc.ListBuildings(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"buildings": buildings,
		"total":     len(buildings),
	})
}

// Create handles POST /api/v1/buildings.
func (h *BuildingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AddBuildingRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	var (
		result *selection.AddResult
		err    error
	)
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		result, err = h.svc.AddBuilding(r.Context(), &selection.AddInput{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Nickname:  req.Nickname,
		})
	case req.Address != "":
		result, err = h.svc.AddByAddress(r.Context(), req.Address)
	default:
		writeAppError(w, errors.InvalidParam("either latitude/longitude or address is required"))
		return
	}
	if err != nil {
		writeAppError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadySelected {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// Get handles GET /api/v1/buildings/{buildingID}.
func (h *BuildingHandler) Get(w http.ResponseWriter, r *http.Request) {
	building, err := h.svc.GetBuilding(r.Context(), chi.URLParam(r, "buildingID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, building)
}

// Delete handles DELETE /api/v1/buildings/{buildingID}.
func (h *BuildingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveBuilding(r.Context(), chi.URLParam(r, "buildingID")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetConfigRequest updates the selected panel configuration of a building.
type SetConfigRequest struct {
	ConfigIndex int `json:"configIndex"`
}

// SetConfig handles PATCH /api/v1/buildings/{buildingID}/config.
func (h *BuildingHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req SetConfigRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	building, err := h.svc.SetConfig(r.Context(), chi.URLParam(r, "buildingID"), req.ConfigIndex)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, building)
}

// SetNicknameRequest renames a building.
type SetNicknameRequest struct {
	Nickname string `json:"nickname"`
}

// SetNickname handles PATCH /api/v1/buildings/{buildingID}/nickname.
func (h *BuildingHandler) SetNickname(w http.ResponseWriter, r *http.Request) {
	var req SetNicknameRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	building, err := h.svc.SetNickname(r.Context(), chi.URLParam(r, "buildingID"), req.Nickname)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, building)
}

// ToggleActive handles POST /api/v1/buildings/{buildingID}/toggle.
func (h *BuildingHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	building, err := h.svc.ToggleActive(r.Context(), chi.URLParam(r, "buildingID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, building)
}

// Match handles GET /api/v1/buildings/match.
// Query parameters: latitude, longitude (both required).
func (h *BuildingHandler) Match(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	if err1 != nil || err2 != nil {
		writeAppError(w, errors.InvalidParam("latitude and longitude query parameters are required"))
		return
	}
	building, err := h.svc.MatchLocation(r.Context(), lat, lng)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, building)
}

// Summary handles GET /api/v1/buildings/summary.
// Optional query parameters: panelCapacityWatts, dcToAcDerate.
func (h *BuildingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	input := &selection.SummaryInput{}
	if v := r.URL.Query().Get("panelCapacityWatts"); v != "" {
		watts, err := strconv.ParseFloat(v, 64)
		if err != nil || watts < 0 {
			writeAppError(w, errors.InvalidParam("panelCapacityWatts must be a non-negative number"))
			return
		}
		input.PanelCapacityWatts = watts
	}
	if v := r.URL.Query().Get("dcToAcDerate"); v != "" {
		derate, err := strconv.ParseFloat(v, 64)
		if err != nil || derate <= 0 || derate > 1 {
			writeAppError(w, errors.InvalidParam("dcToAcDerate must be in (0, 1]"))
			return
		}
		input.DcToAcDerate = derate
	}

	summary, err := h.svc.Summary(r.Context(), input)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Clear handles DELETE /api/v1/buildings.
func (h *BuildingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
