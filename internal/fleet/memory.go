package fleet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SebastianInformatico/cotraq-api/internal/ids"
)

// InMemory implements Service with in-process concurrency safety. Used for
// local development and tests; production runs on the Postgres store.
type InMemory struct {
	mu       sync.RWMutex
	drivers  map[string]*Driver
	vehicles map[string]*Vehicle
}

// NewInMemory creates an empty fleet.
func NewInMemory() *InMemory {
	return &InMemory{
		drivers:  make(map[string]*Driver),
		vehicles: make(map[string]*Vehicle),
	}
}

var _ Service = (*InMemory)(nil)

func (s *InMemory) ListDrivers(ctx context.Context) ([]Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		res = append(res, *d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (s *InMemory) GetDriver(ctx context.Context, id string) (Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return Driver{}, ErrNotFound
	}
	return *d, nil
}

func (s *InMemory) CreateDriver(ctx context.Context, d Driver) (Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.drivers {
		if existing.Email == d.Email || existing.LicenseNumber == d.LicenseNumber {
			return Driver{}, ErrConflict
		}
	}
	if d.ID == "" {
		d.ID = ids.New()
	}
	now := time.Now().UTC()
	d.Active = true
	d.CreatedAt = now
	d.UpdatedAt = now
	s.drivers[d.ID] = &d
	return d, nil
}

func (s *InMemory) UpdateDriver(ctx context.Context, id string, upd DriverUpdate) (Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return Driver{}, ErrNotFound
	}
	if upd.Name != nil {
		d.Name = *upd.Name
	}
	if upd.Phone != nil {
		d.Phone = *upd.Phone
	}
	if upd.LicenseNumber != nil {
		d.LicenseNumber = *upd.LicenseNumber
	}
	if upd.LicenseExpiry != nil {
		d.LicenseExpiry = *upd.LicenseExpiry
	}
	d.UpdatedAt = time.Now().UTC()
	return *d, nil
}

func (s *InMemory) DeactivateDriver(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Active = false
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		res = append(res, *v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (s *InMemory) GetVehicle(ctx context.Context, id string) (Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return Vehicle{}, ErrNotFound
	}
	return *v, nil
}

func (s *InMemory) CreateVehicle(ctx context.Context, v Vehicle) (Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.vehicles {
		if existing.Plate == v.Plate {
			return Vehicle{}, ErrConflict
		}
	}
	if v.ID == "" {
		v.ID = ids.New()
	}
	if v.Status == "" {
		v.Status = VehicleStatusAvailable
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	s.vehicles[v.ID] = &v
	return v, nil
}

func (s *InMemory) UpdateVehicle(ctx context.Context, id string, upd VehicleUpdate) (Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return Vehicle{}, ErrNotFound
	}
	if upd.Status != nil {
		v.Status = *upd.Status
	}
	if upd.OdometerKm != nil {
		v.OdometerKm = *upd.OdometerKm
	}
	v.UpdatedAt = time.Now().UTC()
	return *v, nil
}

func (s *InMemory) RetireVehicle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return ErrNotFound
	}
	v.Status = VehicleStatusRetired
	v.UpdatedAt = time.Now().UTC()
	return nil
}
