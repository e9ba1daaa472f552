package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SebastianInformatico/cotraq-api/internal/audit"
	"github.com/SebastianInformatico/cotraq-api/internal/auth"
	"github.com/SebastianInformatico/cotraq-api/internal/fleet"
)

// Store backs the identity lookup, the audit trail, and the fleet resources
// with PostgreSQL through database/sql.
type Store struct {
	db *sql.DB
}

var (
	_ auth.IdentityStore = (*Store)(nil)
	_ audit.Store        = (*Store)(nil)
	_ fleet.Service      = (*Store)(nil)
)

// Open connects to PostgreSQL using the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (used by tests).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// --- identities -----------------------------------------------------------

const userColumns = `id, name, email, password_hash, role, active, created_at, updated_at`

func (s *Store) FindActiveByID(ctx context.Context, id string) (auth.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanIdentity(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (auth.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanIdentity(row)
}

func scanIdentity(row *sql.Row) (auth.Identity, error) {
	var (
		identity auth.Identity
		role     string
	)
	err := row.Scan(&identity.ID, &identity.Name, &identity.Email, &identity.PasswordHash,
		&role, &identity.Active, &identity.CreatedAt, &identity.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Identity{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.Identity{}, err
	}
	identity.Role = auth.Role(role)
	return identity, nil
}

// --- audit trail ----------------------------------------------------------

// Append inserts one audit record. Runs on its own connection, never inside
// a domain transaction, so a slow or failing append cannot block or roll
// back the primary action.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into audit_logs(id, actor_id, action, entity_type, entity_id, details, ip, user_agent, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		details, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}
