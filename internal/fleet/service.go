package fleet

import "context"

// Service defines the fleet operations exposed over the API.
type Service interface {
	ListDrivers(ctx context.Context) ([]Driver, error)
	GetDriver(ctx context.Context, id string) (Driver, error)
	CreateDriver(ctx context.Context, d Driver) (Driver, error)
	UpdateDriver(ctx context.Context, id string, upd DriverUpdate) (Driver, error)
	DeactivateDriver(ctx context.Context, id string) error

	ListVehicles(ctx context.Context) ([]Vehicle, error)
	GetVehicle(ctx context.Context, id string) (Vehicle, error)
	CreateVehicle(ctx context.Context, v Vehicle) (Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, upd VehicleUpdate) (Vehicle, error)
	RetireVehicle(ctx context.Context, id string) error
}
