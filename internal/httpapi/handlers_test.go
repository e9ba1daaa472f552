package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SebastianInformatico/cotraq-api/internal/audit"
	"github.com/SebastianInformatico/cotraq-api/internal/auth"
	"github.com/SebastianInformatico/cotraq-api/internal/fleet"
)

type captureAudit struct {
	entries []audit.Entry
	err     error
}

func (s *captureAudit) Append(ctx context.Context, entry *audit.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *entry)
	return nil
}

type fixture struct {
	api    *API
	tokens *auth.TokenService
	fleet  *fleet.InMemory
	trail  *captureAudit
}

func newFixture(t *testing.T, users *stubUsers, trail *captureAudit) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	verifier, err := auth.NewVerifier(tokens, users)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	recorder, err := audit.NewRecorder(trail)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	store := fleet.NewInMemory()
	api := New(Options{
		Version:  "test",
		Verifier: verifier,
		Tokens:   tokens,
		Users:    users,
		Recorder: recorder,
		Fleet:    store,
	})
	return &fixture{api: api, tokens: tokens, fleet: store, trail: trail}
}

func (f *fixture) do(t *testing.T, method, path, authz string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rr := httptest.NewRecorder()
	f.api.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, &stubUsers{}, &captureAudit{})

	rr := f.do(t, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "cotraq-api" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLoginIssuesTokenAndAudits(t *testing.T) {
	hash, err := auth.HashPassword("road-runner-9")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := &stubUsers{identities: map[string]auth.Identity{
		"U1": {ID: "U1", Name: "Ana", Email: "ana@cotraq.local", Role: auth.RoleDriver, Active: true, PasswordHash: hash},
	}}
	trail := &captureAudit{}
	f := newFixture(t, users, trail)

	rr := f.do(t, http.MethodPost, "/v1/auth/login", "",
		`{"email":"ana@cotraq.local","password":"road-runner-9"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.UserID != "U1" || resp.Role != auth.RoleDriver {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	claims, err := f.tokens.Parse(resp.Token)
	if err != nil || claims.Subject != "U1" {
		t.Fatalf("issued token does not verify: %v", err)
	}

	if len(trail.entries) != 1 || trail.entries[0].Action != audit.ActionLogin {
		t.Fatalf("expected one LOGIN audit entry, got %+v", trail.entries)
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	hash, _ := auth.HashPassword("correct")
	users := &stubUsers{identities: map[string]auth.Identity{
		"U1": {ID: "U1", Email: "ana@cotraq.local", Role: auth.RoleDriver, Active: true, PasswordHash: hash},
		"U2": {ID: "U2", Email: "off@cotraq.local", Role: auth.RoleDriver, Active: false, PasswordHash: hash},
	}}
	f := newFixture(t, users, &captureAudit{})

	cases := []string{
		`{"email":"ana@cotraq.local","password":"wrong"}`,
		`{"email":"nobody@cotraq.local","password":"correct"}`,
		`{"email":"off@cotraq.local","password":"correct"}`,
	}
	for _, body := range cases {
		rr := f.do(t, http.MethodPost, "/v1/auth/login", "", body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("body %s: expected 401, got %d", body, rr.Code)
		}
		if msg := errorBody(t, rr); msg != "invalid credentials" {
			t.Fatalf("expected uniform message, got %q", msg)
		}
	}
}

func TestDriverSelfOrPrivilegedEndToEnd(t *testing.T) {
	users := &stubUsers{identities: map[string]auth.Identity{
		"U1": {ID: "U1", Role: auth.RoleDriver, Active: true},
		"U2": {ID: "U2", Role: auth.RoleDriver, Active: true},
		"A1": {ID: "A1", Role: auth.RoleAdmin, Active: true},
		"S1": {ID: "S1", Role: auth.RoleSupervisor, Active: true},
	}}
	f := newFixture(t, users, &captureAudit{})

	if _, err := f.fleet.CreateDriver(context.Background(), fleet.Driver{
		ID: "U1", Name: "Ana", Email: "ana@cotraq.local", LicenseNumber: "L-100",
		LicenseExpiry: time.Now().Add(365 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed driver: %v", err)
	}

	cases := []struct {
		name   string
		caller string
		role   auth.Role
		status int
	}{
		{"owner", "U1", auth.RoleDriver, http.StatusOK},
		{"other driver", "U2", auth.RoleDriver, http.StatusForbidden},
		{"admin", "A1", auth.RoleAdmin, http.StatusOK},
		{"supervisor", "S1", auth.RoleSupervisor, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodGet, "/v1/drivers/U1", bearer(t, f.tokens, tc.caller, tc.role), "")
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCreateDriverRequiresAdmin(t *testing.T) {
	users := &stubUsers{identities: map[string]auth.Identity{
		"A1": {ID: "A1", Role: auth.RoleAdmin, Active: true},
		"S1": {ID: "S1", Role: auth.RoleSupervisor, Active: true},
	}}
	trail := &captureAudit{}
	f := newFixture(t, users, trail)

	body := `{"name":"Bo","email":"bo@cotraq.local","license_number":"L-7","license_expiry":"2027-01-01T00:00:00Z"}`

	rr := f.do(t, http.MethodPost, "/v1/drivers", bearer(t, f.tokens, "S1", auth.RoleSupervisor), body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("supervisor create: expected 403, got %d", rr.Code)
	}
	if len(trail.entries) != 0 {
		t.Fatalf("denied request must not audit, got %+v", trail.entries)
	}

	rr = f.do(t, http.MethodPost, "/v1/drivers", bearer(t, f.tokens, "A1", auth.RoleAdmin), body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Location") == "" {
		t.Fatal("expected Location header")
	}
	if len(trail.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(trail.entries))
	}
	entry := trail.entries[0]
	if entry.Action != audit.ActionCreate || entry.EntityType != "driver" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.ActorID == nil || *entry.ActorID != "A1" {
		t.Fatalf("expected actor A1, got %v", entry.ActorID)
	}
}

func TestAuditOutageDoesNotChangeOutcome(t *testing.T) {
	users := &stubUsers{identities: map[string]auth.Identity{
		"A1": {ID: "A1", Role: auth.RoleAdmin, Active: true},
	}}
	body := `{"name":"Bo","email":"bo@cotraq.local","license_number":"L-7","license_expiry":"2027-01-01T00:00:00Z"}`

	healthy := newFixture(t, users, &captureAudit{})
	degraded := newFixture(t, users, &captureAudit{err: errors.New("audit store down")})

	rrHealthy := healthy.do(t, http.MethodPost, "/v1/drivers", bearer(t, healthy.tokens, "A1", auth.RoleAdmin), body)
	rrDegraded := degraded.do(t, http.MethodPost, "/v1/drivers", bearer(t, degraded.tokens, "A1", auth.RoleAdmin), body)

	if rrHealthy.Code != http.StatusCreated {
		t.Fatalf("healthy: expected 201, got %d", rrHealthy.Code)
	}
	if rrDegraded.Code != rrHealthy.Code {
		t.Fatalf("audit outage changed outcome: %d vs %d", rrDegraded.Code, rrHealthy.Code)
	}
}

func TestVehicleLifecycle(t *testing.T) {
	users := &stubUsers{identities: map[string]auth.Identity{
		"A1": {ID: "A1", Role: auth.RoleAdmin, Active: true},
		"U1": {ID: "U1", Role: auth.RoleDriver, Active: true},
	}}
	trail := &captureAudit{}
	f := newFixture(t, users, trail)
	admin := bearer(t, f.tokens, "A1", auth.RoleAdmin)

	rr := f.do(t, http.MethodPost, "/v1/vehicles", admin, `{"plate":"kzt-001","make":"Ford","model":"Transit","year":2022}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var vehicle fleet.Vehicle
	if err := json.Unmarshal(rr.Body.Bytes(), &vehicle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if vehicle.Plate != "KZT-001" {
		t.Fatalf("expected normalized plate, got %q", vehicle.Plate)
	}

	// Drivers can read the fleet.
	rr = f.do(t, http.MethodGet, "/v1/vehicles/"+vehicle.ID, bearer(t, f.tokens, "U1", auth.RoleDriver), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("driver read: expected 200, got %d", rr.Code)
	}
	// But cannot mutate it.
	rr = f.do(t, http.MethodPatch, "/v1/vehicles/"+vehicle.ID, bearer(t, f.tokens, "U1", auth.RoleDriver), `{"status":"maintenance"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("driver patch: expected 403, got %d", rr.Code)
	}

	rr = f.do(t, http.MethodPatch, "/v1/vehicles/"+vehicle.ID, admin, `{"status":"maintenance"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin patch: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = f.do(t, http.MethodDelete, "/v1/vehicles/"+vehicle.ID, admin, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("retire: expected 204, got %d", rr.Code)
	}

	got, err := f.fleet.GetVehicle(context.Background(), vehicle.ID)
	if err != nil || got.Status != fleet.VehicleStatusRetired {
		t.Fatalf("expected retired vehicle, got %+v err=%v", got, err)
	}

	// CREATE, UPDATE, DELETE in order.
	if len(trail.entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(trail.entries))
	}
	actions := []string{trail.entries[0].Action, trail.entries[1].Action, trail.entries[2].Action}
	want := []string{audit.ActionCreate, audit.ActionUpdate, audit.ActionDelete}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("unexpected audit actions: %v", actions)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	users := &stubUsers{identities: map[string]auth.Identity{
		"A1": {ID: "A1", Role: auth.RoleAdmin, Active: true},
	}}
	f := newFixture(t, users, &captureAudit{})

	rr := f.do(t, http.MethodGet, "/v1/nope", bearer(t, f.tokens, "A1", auth.RoleAdmin), "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
