package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/SebastianInformatico/cotraq-api/internal/fleet"
	"github.com/SebastianInformatico/cotraq-api/internal/ids"
)

const driverColumns = `id, name, email, license_number, license_expiry, phone, active, created_at, updated_at`

func (s *Store) ListDrivers(ctx context.Context) ([]fleet.Driver, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+driverColumns+` from drivers order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []fleet.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (s *Store) GetDriver(ctx context.Context, id string) (fleet.Driver, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+driverColumns+` from drivers where id=$1`, id)
	d, err := scanDriver(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Driver{}, fleet.ErrNotFound
	}
	return d, err
}

func (s *Store) CreateDriver(ctx context.Context, d fleet.Driver) (fleet.Driver, error) {
	if d.ID == "" {
		d.ID = ids.New()
	}
	d.Active = true
	err := s.db.QueryRowContext(ctx, `
		insert into drivers(id, name, email, license_number, license_expiry, phone, active)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning created_at, updated_at
	`, d.ID, d.Name, d.Email, d.LicenseNumber, d.LicenseExpiry, d.Phone, d.Active).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fleet.Driver{}, fleet.ErrConflict
		}
		return fleet.Driver{}, err
	}
	return d, nil
}

func (s *Store) UpdateDriver(ctx context.Context, id string, upd fleet.DriverUpdate) (fleet.Driver, error) {
	row := s.db.QueryRowContext(ctx, `
		update drivers set
			name = coalesce($2, name),
			phone = coalesce($3, phone),
			license_number = coalesce($4, license_number),
			license_expiry = coalesce($5, license_expiry),
			updated_at = now()
		where id=$1
		returning `+driverColumns,
		id, upd.Name, upd.Phone, upd.LicenseNumber, upd.LicenseExpiry)
	d, err := scanDriver(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Driver{}, fleet.ErrNotFound
	}
	return d, err
}

func (s *Store) DeactivateDriver(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update drivers set active=false, updated_at=now() where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

const vehicleColumns = `id, plate, make, model, year, status, odometer_km, created_at, updated_at`

func (s *Store) ListVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+vehicleColumns+` from vehicles order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []fleet.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func (s *Store) GetVehicle(ctx context.Context, id string) (fleet.Vehicle, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+vehicleColumns+` from vehicles where id=$1`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Vehicle{}, fleet.ErrNotFound
	}
	return v, err
}

func (s *Store) CreateVehicle(ctx context.Context, v fleet.Vehicle) (fleet.Vehicle, error) {
	if v.ID == "" {
		v.ID = ids.New()
	}
	if v.Status == "" {
		v.Status = fleet.VehicleStatusAvailable
	}
	err := s.db.QueryRowContext(ctx, `
		insert into vehicles(id, plate, make, model, year, status, odometer_km)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning created_at, updated_at
	`, v.ID, v.Plate, v.Make, v.Model, v.Year, v.Status, v.OdometerKm).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fleet.Vehicle{}, fleet.ErrConflict
		}
		return fleet.Vehicle{}, err
	}
	return v, nil
}

func (s *Store) UpdateVehicle(ctx context.Context, id string, upd fleet.VehicleUpdate) (fleet.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, `
		update vehicles set
			status = coalesce($2, status),
			odometer_km = coalesce($3, odometer_km),
			updated_at = now()
		where id=$1
		returning `+vehicleColumns,
		id, upd.Status, upd.OdometerKm)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Vehicle{}, fleet.ErrNotFound
	}
	return v, err
}

func (s *Store) RetireVehicle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update vehicles set status=$2, updated_at=now() where id=$1`,
		id, fleet.VehicleStatusRetired)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- helpers --------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanDriver(row scanner) (fleet.Driver, error) {
	var (
		d     fleet.Driver
		phone sql.NullString
	)
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.LicenseNumber, &d.LicenseExpiry,
		&phone, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fleet.Driver{}, err
	}
	d.Phone = phone.String
	return d, nil
}

func scanVehicle(row scanner) (fleet.Vehicle, error) {
	var v fleet.Vehicle
	err := row.Scan(&v.ID, &v.Plate, &v.Make, &v.Model, &v.Year, &v.Status,
		&v.OdometerKm, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fleet.Vehicle{}, err
	}
	return v, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fleet.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// pgx surfaces SQLSTATE in the error string; 23505 is unique_violation.
	return err != nil && strings.Contains(err.Error(), "23505")
}
