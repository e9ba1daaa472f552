package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SebastianInformatico/cotraq-api/internal/audit"
	"github.com/SebastianInformatico/cotraq-api/internal/fleet"
)

type createDriverRequest struct {
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	LicenseNumber string    `json:"license_number"`
	LicenseExpiry time.Time `json:"license_expiry"`
	Phone         string    `json:"phone"`
}

type updateDriverRequest struct {
	Name          *string    `json:"name"`
	Phone         *string    `json:"phone"`
	LicenseNumber *string    `json:"license_number"`
	LicenseExpiry *time.Time `json:"license_expiry"`
}

func (a *API) listDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := a.fleet.ListDrivers(r.Context())
	if err != nil {
		handleFleetError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": drivers})
}

func (a *API) getDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := a.fleet.GetDriver(r.Context(), r.PathValue("id"))
	if err != nil {
		handleFleetError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, driver)
}

func (a *API) createDriver(w http.ResponseWriter, r *http.Request) {
	var req createDriverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	if req.Name == "" || req.LicenseNumber == "" {
		writeError(w, r, http.StatusBadRequest, "name and license_number are required")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "valid email is required")
		return
	}

	driver, err := a.fleet.CreateDriver(r.Context(), fleet.Driver{
		Name:          req.Name,
		Email:         req.Email,
		LicenseNumber: req.LicenseNumber,
		LicenseExpiry: req.LicenseExpiry,
		Phone:         strings.TrimSpace(req.Phone),
	})
	if err != nil {
		handleFleetError(w, r, err)
		return
	}

	a.auditAction(r, audit.ActionCreate, "driver", driver.ID, map[string]any{
		"name":  driver.Name,
		"email": driver.Email,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/drivers/%s", driver.ID))
	writeJSON(w, http.StatusCreated, driver)
}

func (a *API) updateDriver(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateDriverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			writeError(w, r, http.StatusBadRequest, "name must not be empty")
			return
		}
		req.Name = &trimmed
	}

	driver, err := a.fleet.UpdateDriver(r.Context(), id, fleet.DriverUpdate{
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		LicenseExpiry: req.LicenseExpiry,
	})
	if err != nil {
		handleFleetError(w, r, err)
		return
	}

	a.auditAction(r, audit.ActionUpdate, "driver", driver.ID, map[string]any{
		"fields": updatedDriverFields(req),
	})
	writeJSON(w, http.StatusOK, driver)
}

func (a *API) deactivateDriver(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.fleet.DeactivateDriver(r.Context(), id); err != nil {
		handleFleetError(w, r, err)
		return
	}
	a.auditAction(r, audit.ActionDelete, "driver", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// auditAction appends one best-effort audit entry for a handler-owned
// mutation. The actor comes from the request identity.
func (a *API) auditAction(r *http.Request, action, entityType, entityID string, details map[string]any) {
	if a.recorder == nil {
		return
	}
	ip, ua := audit.FromRequest(r)
	a.recorder.Record(r.Context(), audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IP:         ip,
		UserAgent:  ua,
	})
}

func updatedDriverFields(req updateDriverRequest) []string {
	var fields []string
	if req.Name != nil {
		fields = append(fields, "name")
	}
	if req.Phone != nil {
		fields = append(fields, "phone")
	}
	if req.LicenseNumber != nil {
		fields = append(fields, "license_number")
	}
	if req.LicenseExpiry != nil {
		fields = append(fields, "license_expiry")
	}
	return fields
}

func handleFleetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fleet.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, fleet.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, fleet.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
