package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/SebastianInformatico/cotraq-api/internal/audit"
	"github.com/SebastianInformatico/cotraq-api/internal/auth"
	"github.com/SebastianInformatico/cotraq-api/internal/fleet"
	"github.com/SebastianInformatico/cotraq-api/internal/obs"
)

// ReadyProbe reports whether the service can reach its dependencies.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. Every protected route runs through the same
// pipeline: credential verification, capability check, handler, and the
// handler-initiated audit append.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	verifier *auth.Verifier
	tokens   *auth.TokenService
	users    auth.IdentityStore
	recorder *audit.Recorder
	fleet    fleet.Service
}

// Options collects the collaborators New wires into the routes.
type Options struct {
	ReadyProbe ReadyProbe
	Version    string
	Verifier   *auth.Verifier
	Tokens     *auth.TokenService
	Users      auth.IdentityStore
	Recorder   *audit.Recorder
	Fleet      fleet.Service
}

func New(opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
		verifier:   opts.Verifier,
		tokens:     opts.Tokens,
		users:      opts.Users,
		recorder:   opts.Recorder,
		fleet:      opts.Fleet,
	}

	// health/ready/info
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("GET /metrics", obs.Handler())

	// login is the one place tokens are minted
	a.mux.HandleFunc("POST /v1/auth/login", a.handleLogin)

	// drivers
	a.mux.Handle("GET /v1/drivers", a.require(auth.AnyOf(auth.RoleAdmin, auth.RoleSupervisor), a.listDrivers))
	a.mux.Handle("POST /v1/drivers", a.require(auth.AnyOf(auth.RoleAdmin), a.createDriver))
	a.mux.Handle("GET /v1/drivers/{id}", a.require(auth.SelfOrPrivileged("id"), a.getDriver))
	a.mux.Handle("PATCH /v1/drivers/{id}", a.require(auth.SelfOrPrivileged("id"), a.updateDriver))
	a.mux.Handle("DELETE /v1/drivers/{id}", a.require(auth.AnyOf(auth.RoleAdmin), a.deactivateDriver))

	// vehicles
	a.mux.Handle("GET /v1/vehicles", a.require(auth.AnyOf(auth.RoleAdmin, auth.RoleSupervisor, auth.RoleDriver), a.listVehicles))
	a.mux.Handle("POST /v1/vehicles", a.require(auth.AnyOf(auth.RoleAdmin, auth.RoleSupervisor), a.createVehicle))
	a.mux.Handle("GET /v1/vehicles/{id}", a.require(auth.AnyOf(auth.RoleAdmin, auth.RoleSupervisor, auth.RoleDriver), a.getVehicle))
	a.mux.Handle("PATCH /v1/vehicles/{id}", a.require(auth.AnyOf(auth.RoleAdmin, auth.RoleSupervisor), a.updateVehicle))
	a.mux.Handle("DELETE /v1/vehicles/{id}", a.require(auth.AnyOf(auth.RoleAdmin), a.retireVehicle))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux. Authentication sits
// innermost so everything else (metrics, logging, limits) still covers
// rejected requests.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
