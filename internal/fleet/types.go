package fleet

import (
	"errors"
	"time"
)

// Driver is the operating profile that backs a driver account. The profile
// id doubles as the owning identifier for self-or-privileged routes.
type Driver struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	LicenseNumber string    `json:"license_number"`
	LicenseExpiry time.Time `json:"license_expiry"`
	Phone         string    `json:"phone,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Vehicle is one unit of the fleet.
type Vehicle struct {
	ID         string    `json:"id"`
	Plate      string    `json:"plate"`
	Make       string    `json:"make"`
	Model      string    `json:"model"`
	Year       int       `json:"year"`
	Status     string    `json:"status"`
	OdometerKm int64     `json:"odometer_km"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Vehicle statuses.
const (
	VehicleStatusAvailable   = "available"
	VehicleStatusInService   = "in_service"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusRetired     = "retired"
)

// ValidVehicleStatus reports whether s is a known status.
func ValidVehicleStatus(s string) bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusInService, VehicleStatusMaintenance, VehicleStatusRetired:
		return true
	}
	return false
}

// DriverUpdate carries the mutable driver fields; nil means unchanged.
type DriverUpdate struct {
	Name          *string
	Phone         *string
	LicenseNumber *string
	LicenseExpiry *time.Time
}

// VehicleUpdate carries the mutable vehicle fields; nil means unchanged.
type VehicleUpdate struct {
	Status     *string
	OdometerKm *int64
}

var (
	ErrNotFound     = errors.New("fleet: not found")
	ErrConflict     = errors.New("fleet: resource conflict")
	ErrInvalidInput = errors.New("fleet: invalid input")
)
