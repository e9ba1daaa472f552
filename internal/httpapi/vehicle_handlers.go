package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SebastianInformatico/cotraq-api/internal/audit"
	"github.com/SebastianInformatico/cotraq-api/internal/fleet"
)

type createVehicleRequest struct {
	Plate      string `json:"plate"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	OdometerKm int64  `json:"odometer_km"`
}

type updateVehicleRequest struct {
	Status     *string `json:"status"`
	OdometerKm *int64  `json:"odometer_km"`
}

func (a *API) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := a.fleet.ListVehicles(r.Context())
	if err != nil {
		handleFleetError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": vehicles})
}

func (a *API) getVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := a.fleet.GetVehicle(r.Context(), r.PathValue("id"))
	if err != nil {
		handleFleetError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (a *API) createVehicle(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Plate = strings.ToUpper(strings.TrimSpace(req.Plate))
	if req.Plate == "" {
		writeError(w, r, http.StatusBadRequest, "plate is required")
		return
	}
	if req.Year != 0 && (req.Year < 1950 || req.Year > time.Now().Year()+1) {
		writeError(w, r, http.StatusBadRequest, "year out of range")
		return
	}
	if req.OdometerKm < 0 {
		writeError(w, r, http.StatusBadRequest, "odometer_km must be >= 0")
		return
	}

	vehicle, err := a.fleet.CreateVehicle(r.Context(), fleet.Vehicle{
		Plate:      req.Plate,
		Make:       strings.TrimSpace(req.Make),
		Model:      strings.TrimSpace(req.Model),
		Year:       req.Year,
		OdometerKm: req.OdometerKm,
	})
	if err != nil {
		handleFleetError(w, r, err)
		return
	}

	a.auditAction(r, audit.ActionCreate, "vehicle", vehicle.ID, map[string]any{
		"plate": vehicle.Plate,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/vehicles/%s", vehicle.ID))
	writeJSON(w, http.StatusCreated, vehicle)
}

func (a *API) updateVehicle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateVehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status != nil {
		status := strings.TrimSpace(strings.ToLower(*req.Status))
		if !fleet.ValidVehicleStatus(status) {
			writeError(w, r, http.StatusBadRequest, "unsupported status")
			return
		}
		req.Status = &status
	}
	if req.OdometerKm != nil && *req.OdometerKm < 0 {
		writeError(w, r, http.StatusBadRequest, "odometer_km must be >= 0")
		return
	}

	vehicle, err := a.fleet.UpdateVehicle(r.Context(), id, fleet.VehicleUpdate{
		Status:     req.Status,
		OdometerKm: req.OdometerKm,
	})
	if err != nil {
		handleFleetError(w, r, err)
		return
	}

	details := map[string]any{}
	if req.Status != nil {
		details["status"] = *req.Status
	}
	if req.OdometerKm != nil {
		details["odometer_km"] = *req.OdometerKm
	}
	a.auditAction(r, audit.ActionUpdate, "vehicle", vehicle.ID, details)
	writeJSON(w, http.StatusOK, vehicle)
}

func (a *API) retireVehicle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.fleet.RetireVehicle(r.Context(), id); err != nil {
		handleFleetError(w, r, err)
		return
	}
	a.auditAction(r, audit.ActionDelete, "vehicle", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
